package tracing_test

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/minicache/tracing"
)

func sampleRecords() []tracing.Record {
	return []tracing.Record{
		{ID: "a", Cycle: 3, Kind: "read", Addr: 0x40, Data: []uint64{0x1, 0x2}},
		{ID: "b", Cycle: 5, Kind: "response", Addr: 0x44, Data: []uint64{0x2}},
	}
}

var _ = Describe("Writers", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should reject an unknown format", func() {
		_, err := tracing.NewWriter("parquet", "")
		Expect(err).To(HaveOccurred())
	})

	Describe("CSVTraceWriter", func() {
		It("should write a header and one row per record", func() {
			path := filepath.Join(dir, "trace")
			w, err := tracing.NewWriter("csv", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Init()).To(Succeed())

			for _, r := range sampleRecords() {
				w.Write(r)
			}
			Expect(w.Close()).To(Succeed())
			Expect(w.Close()).To(Succeed())

			data, err := os.ReadFile(path + ".csv")
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.Split(strings.TrimSpace(string(data)), "\n")).To(Equal([]string{
				"ID, Cycle, Kind, Addr, Data",
				"a, 3, read, 0x40, 0x1 0x2",
				"b, 5, response, 0x44, 0x2",
			}))
		})

		It("should refuse to overwrite a trace", func() {
			path := filepath.Join(dir, "trace")
			Expect(os.WriteFile(path+".csv", nil, 0644)).To(Succeed())

			w := tracing.NewCSVTraceWriter(path)
			Expect(w.Init()).NotTo(Succeed())
		})

		It("should pick a name when none is given", func() {
			w := tracing.NewCSVTraceWriter("")
			Expect(w.Path()).To(BeEmpty())

			wd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(dir)).To(Succeed())
			DeferCleanup(os.Chdir, wd)

			Expect(w.Init()).To(Succeed())
			Expect(w.Close()).To(Succeed())
			Expect(w.Path()).To(HavePrefix("minicache_trace_"))
			Expect(w.Path() + ".csv").To(BeAnExistingFile())
		})
	})

	Describe("SQLiteTraceWriter", func() {
		It("should insert every record", func() {
			path := filepath.Join(dir, "trace")
			w, err := tracing.NewWriter("sqlite", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Init()).To(Succeed())

			for _, r := range sampleRecords() {
				w.Write(r)
			}
			Expect(w.Flush()).To(Succeed())
			Expect(w.Close()).To(Succeed())

			db, err := sql.Open("sqlite3", path+".sqlite3")
			Expect(err).NotTo(HaveOccurred())
			defer db.Close()

			var count int
			Expect(db.QueryRow("SELECT COUNT(*) FROM trace").Scan(&count)).To(Succeed())
			Expect(count).To(Equal(2))

			var kind, data string
			var cycle, addr int64
			Expect(db.QueryRow("SELECT cycle, kind, addr, data FROM trace WHERE id = 'a'").
				Scan(&cycle, &kind, &addr, &data)).To(Succeed())
			Expect(cycle).To(Equal(int64(3)))
			Expect(kind).To(Equal("read"))
			Expect(addr).To(Equal(int64(0x40)))
			Expect(data).To(Equal("0x1 0x2"))
		})

		It("should release the database when the table cannot be created", func() {
			path := filepath.Join(dir, "missing", "trace")
			w := tracing.NewSQLiteTraceWriter(path)

			Expect(w.Init()).To(MatchError(ContainSubstring("failed to create trace table")))
			Expect(func() { Expect(w.Close()).To(Succeed()) }).NotTo(Panic())

			_, err := os.Stat(path + ".sqlite3")
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})
})
