// Package benchmarks provides traffic patterns and the differential harness
// that runs them through the cycle-stepped cache and the reference model.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/minicache/timing/cache"
	"github.com/sarchlab/minicache/timing/core"
	"github.com/sarchlab/minicache/timing/golden"
	"github.com/sarchlab/minicache/timing/latency"
	"github.com/sarchlab/minicache/timing/mem"
)

// maxReportedMismatches bounds the mismatch list of a result.
const maxReportedMismatches = 16

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark exercises
	Description string `json:"description"`

	// Requests is the number of accesses replayed
	Requests int `json:"requests"`

	// SimulatedCycles is the total cycle count of the controller
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// StallCycles is the number of cycles a request waited for the cache
	StallCycles uint64 `json:"stall_cycles"`

	// Cache is the controller's statistics
	Cache cache.Statistics `json:"cache"`

	// HitRate is hits over accepted non-aborted requests
	HitRate float64 `json:"hit_rate"`

	// Reference is the reference model's statistics
	Reference golden.Statistics `json:"reference"`

	// Responses is the number of responses the controller delivered
	Responses int `json:"responses"`

	// Bursts is the number of bursts the controller put on the bus
	Bursts int `json:"bursts"`

	// Mismatches lists the first differences between controller and
	// reference model
	Mismatches []string `json:"mismatches,omitempty"`

	// Error is set when the run could not complete
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Passed reports whether the run completed and matched the reference model.
func (r BenchmarkResult) Passed() bool {
	return r.Error == "" && len(r.Mismatches) == 0
}

// Benchmark defines a single stream of accesses.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark exercises
	Description string

	// Accesses is the stream replayed into the cache
	Accesses []core.Access

	// Memory is the initial memory image. Each run works on its own copy.
	// Nil means all-zero memory.
	Memory *mem.Memory
}

// NewBenchmark generates a benchmark from a pattern. The memory image and
// the accesses are derived from seed.
func NewBenchmark(
	p Pattern,
	config cache.Config,
	requests int,
	abortRate float64,
	seed int64,
) Benchmark {
	rng := rand.New(rand.NewSource(seed))

	memory := mem.NewMemory()
	SeedMemory(config, memory, rng)

	accesses := p.Generate(config, requests, rng)
	accesses = WithAborts(accesses, abortRate, rng)

	return Benchmark{
		Name:        p.Name,
		Description: p.Description,
		Accesses:    accesses,
		Memory:      memory,
	}
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Cache is the cache geometry
	Cache cache.Config

	// Timing is the bus memory timing (nil uses the defaults)
	Timing *latency.TimingConfig

	// MaxCycles bounds each run (0 means unbounded)
	MaxCycles uint64

	// Hooks are attached to the system of every run
	Hooks []sim.Hook

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Cache:     cache.DefaultConfig(),
		Timing:    latency.DefaultTimingConfig(),
		MaxCycles: 10_000_000,
		Output:    os.Stdout,
		Verbose:   false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on the controller and on the
// reference model and compares what they did.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		Requests:    len(bench.Accesses),
	}

	initial := bench.Memory
	if initial == nil {
		initial = mem.NewMemory()
	}

	controller, err := cache.NewController(h.config.Cache)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if err := h.config.Timing.Validate(); err != nil {
		result.Error = fmt.Sprintf("invalid timing config: %v", err)
		return result
	}

	busMemory := mem.NewBusMemory(h.config.Cache.Bus, initial.Clone(), h.config.Timing)
	system := core.NewCore(controller, busMemory)
	system.Load(bench.Accesses)
	system.SetCycleLimit(h.config.MaxCycles)
	for _, hook := range h.config.Hooks {
		system.AcceptHook(hook)
	}

	engine := sim.NewSerialEngine()
	freq := sim.Freq(h.config.Timing.FreqGHz) * sim.GHz
	component := core.NewComponent("Cache", engine, freq, system)

	// Run simulation and measure time
	start := time.Now()
	err = core.RunOnEngine(engine, component)
	result.WallTime = time.Since(start)

	stats := controller.Stats()
	result.SimulatedCycles = system.Stats().Cycles
	result.StallCycles = system.Stats().StallCycles
	result.Cache = stats
	result.HitRate = stats.HitRate()
	result.Responses = len(system.Completions())
	result.Bursts = len(system.Transactions())

	if err != nil {
		result.Error = err.Error()
		return result
	}

	reference, err := golden.New(h.config.Cache, initial.Clone())
	if err != nil {
		result.Error = err.Error()
		return result
	}

	expected := replay(reference, bench.Accesses)
	result.Reference = reference.Stats()
	result.Mismatches = compare(system, reference, expected)

	if err := controller.CheckInvariants(); err != nil {
		result.Mismatches = append(result.Mismatches, err.Error())
	}

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "%s: %d cycles, %d responses, %d bursts, %d mismatches\n",
			result.Name, result.SimulatedCycles, result.Responses, result.Bursts,
			len(result.Mismatches))
	}

	return result
}

// replay runs the accesses that are not aborted through the reference
// model and returns the expected completions.
func replay(reference *golden.Cache, accesses []core.Access) []core.Completion {
	var expected []core.Completion

	for i, a := range accesses {
		if a.Abort && a.Req.IsWrite() {
			continue
		}

		expected = append(expected, core.Completion{
			Index: i,
			Req:   a.Req,
			Data:  reference.Access(a.Req),
		})
	}

	return expected
}

// compare checks the controller against the reference model one
// transaction at a time: the ordered responses by request and data, then the
// ordered bursts beat for beat. The reference model has no notion of cycles,
// so cycle timing is left to the controller's own tests.
func compare(
	system *core.Core,
	reference *golden.Cache,
	expected []core.Completion,
) []string {
	var mismatches []string
	report := func(format string, args ...any) {
		if len(mismatches) < maxReportedMismatches {
			mismatches = append(mismatches, fmt.Sprintf(format, args...))
		}
	}

	got := system.Completions()
	if len(got) != len(expected) {
		report("got %d responses, expected %d", len(got), len(expected))
	}

	for i := 0; i < len(got) && i < len(expected); i++ {
		g, e := got[i], expected[i]
		if g.Index != e.Index || g.Data != e.Data {
			report("response %d: request %d data %#x, expected request %d data %#x",
				i, g.Index, g.Data, e.Index, e.Data)
		}
	}

	gotTxns := system.Transactions()
	expectedTxns := reference.Transactions()
	if len(gotTxns) != len(expectedTxns) {
		report("got %d bursts, expected %d", len(gotTxns), len(expectedTxns))
	}

	for i := 0; i < len(gotTxns) && i < len(expectedTxns); i++ {
		if !gotTxns[i].Equal(expectedTxns[i]) {
			report("burst %d: %s, expected %s", i, gotTxns[i], expectedTxns[i])
		}
	}

	return mismatches
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Cache Differential Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Requests: %d\n", r.Requests)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles: %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:     %d\n", r.StallCycles)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Cache ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Reads:      %d\n", r.Cache.Reads)
		_, _ = fmt.Fprintf(h.config.Output, "  Writes:     %d\n", r.Cache.Writes)
		_, _ = fmt.Fprintf(h.config.Output, "  Hits:       %d\n", r.Cache.Hits)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses:     %d\n", r.Cache.Misses)
		_, _ = fmt.Fprintf(h.config.Output, "  Writebacks: %d\n", r.Cache.Writebacks)
		_, _ = fmt.Fprintf(h.config.Output, "  Aborts:     %d\n", r.Cache.Aborts)
		_, _ = fmt.Fprintf(h.config.Output, "  Hit Rate:   %.1f%%\n", r.HitRate*100)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Bus ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Responses: %d\n", r.Responses)
		_, _ = fmt.Fprintf(h.config.Output, "  Bursts:    %d\n", r.Bursts)

		switch {
		case r.Error != "":
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
		case len(r.Mismatches) > 0:
			_, _ = fmt.Fprintf(h.config.Output, "  Mismatches: %d\n", len(r.Mismatches))
			for _, m := range r.Mismatches {
				_, _ = fmt.Fprintf(h.config.Output, "    %s\n", m)
			}
		default:
			_, _ = fmt.Fprintln(h.config.Output, "  Reference: match")
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,requests,cycles,stalls,reads,writes,hits,misses,writebacks,aborts,bursts,mismatches")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.Requests,
			r.SimulatedCycles,
			r.StallCycles,
			r.Cache.Reads,
			r.Cache.Writes,
			r.Cache.Hits,
			r.Cache.Misses,
			r.Cache.Writebacks,
			r.Cache.Aborts,
			r.Bursts,
			len(r.Mismatches),
		)
	}
}

// WriteJSON writes benchmark results as an indented JSON array.
func WriteJSON(w io.Writer, results []BenchmarkResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize results: %w", err)
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	return nil
}
