package tracing_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/minicache/nasti"
	"github.com/sarchlab/minicache/timing/cache"
	"github.com/sarchlab/minicache/timing/core"
	"github.com/sarchlab/minicache/tracing"
)

var _ = Describe("Hook", func() {
	var (
		mockCtrl *gomock.Controller
		writer   *MockWriter
		hook     *tracing.Hook
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		writer = NewMockWriter(mockCtrl)
		hook = tracing.NewHook(writer)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should record a response", func() {
		var got tracing.Record
		writer.EXPECT().Write(gomock.Any()).Do(func(r tracing.Record) {
			got = r
		})

		hook.Func(sim.HookCtx{
			Pos: core.HookPosResponse,
			Item: core.Completion{
				Index: 3,
				Req:   cache.Request{Valid: true, Addr: 0x40},
				Data:  0xBEEF,
				Cycle: 17,
			},
		})

		Expect(got.ID).NotTo(BeEmpty())
		Expect(got.Cycle).To(Equal(uint64(17)))
		Expect(got.Kind).To(Equal("response"))
		Expect(got.Addr).To(Equal(uint64(0x40)))
		Expect(got.Data).To(Equal([]uint64{0xBEEF}))
	})

	It("should record a burst with its cycle", func() {
		var got tracing.Record
		writer.EXPECT().Write(gomock.Any()).Do(func(r tracing.Record) {
			got = r
		})

		hook.Func(sim.HookCtx{
			Pos: core.HookPosBurst,
			Item: nasti.Transaction{
				Kind: nasti.KindWrite,
				Addr: 0x100,
				Size: 3,
				Len:  1,
				Data: []uint64{1, 2},
			},
			Detail: uint64(9),
		})

		Expect(got.Cycle).To(Equal(uint64(9)))
		Expect(got.Kind).To(Equal("write"))
		Expect(got.Addr).To(Equal(uint64(0x100)))
		Expect(got.Data).To(Equal([]uint64{1, 2}))
		Expect(got.DataString()).To(Equal("0x1 0x2"))
	})

	It("should ignore other hook positions", func() {
		hook.Func(sim.HookCtx{Pos: &sim.HookPos{Name: "Other"}, Item: 1})
	})
})
