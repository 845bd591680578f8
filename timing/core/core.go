// Package core provides the clocked system model: a requester replaying a
// list of accesses into the cache controller, and the bus memory behind it.
package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/minicache/nasti"
	"github.com/sarchlab/minicache/timing/cache"
	"github.com/sarchlab/minicache/timing/mem"
)

// ErrCycleLimit is returned when a run does not finish within its cycle
// budget, which happens when the bus stops answering.
var ErrCycleLimit = errors.New("cycle limit reached")

// HookPosResponse marks a completed request. The hook item is a Completion.
var HookPosResponse = &sim.HookPos{Name: "CacheResponse"}

// HookPosBurst marks a burst completed on the bus. The hook item is a
// nasti.Transaction.
var HookPosBurst = &sim.HookPos{Name: "BusBurst"}

// Access is one request of the replayed stream.
type Access struct {
	Req cache.Request
	// Abort asks the requester to abort the write in its commit cycle.
	Abort bool
}

// Completion is a response matched with the request it answers.
type Completion struct {
	// Index is the position of the access in the replayed stream.
	Index int
	Req   cache.Request
	Data  uint64
	Cycle uint64
}

// Stats holds performance statistics for the system.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Accepted is the number of requests the cache accepted.
	Accepted uint64
	// Completed is the number of responses delivered.
	Completed uint64
	// Aborted is the number of writes aborted by the requester.
	Aborted uint64
	// StallCycles counts cycles in which a request waited for the cache.
	StallCycles uint64
}

// Core represents the requester, the cache and the memory, clocked
// together.
type Core struct {
	*sim.HookableBase

	// Cache is the cache controller under simulation.
	Cache *cache.Controller
	// Memory is the bus memory behind the cache.
	Memory *mem.BusMemory

	accesses []Access
	next     int
	inflight []int
	abortNow bool

	completions []Completion
	bursts      int

	maxCycles uint64
	stats     Stats
}

// NewCore creates a system around a cache controller and a bus memory.
func NewCore(c *cache.Controller, memory *mem.BusMemory) *Core {
	return &Core{
		HookableBase: sim.NewHookableBase(),
		Cache:        c,
		Memory:       memory,
	}
}

// Load queues accesses to be replayed after the ones already queued.
func (c *Core) Load(accesses []Access) {
	c.accesses = append(c.accesses, accesses...)
}

// SetCycleLimit makes Tick stop making progress after the given number of
// cycles. Zero means no limit.
func (c *Core) SetCycleLimit(cycles uint64) {
	c.maxCycles = cycles
}

// Completions returns the responses delivered so far, in order.
func (c *Core) Completions() []Completion {
	return c.completions
}

// Stats returns performance statistics for the system.
func (c *Core) Stats() Stats {
	return c.stats
}

// Done reports whether every access has been answered and the bus is quiet.
func (c *Core) Done() bool {
	return c.next == len(c.accesses) &&
		len(c.inflight) == 0 &&
		c.Cache.State() == cache.StateIdle &&
		!c.Memory.Busy()
}

// Tick executes one cycle. It returns false once there is nothing left to do
// or the cycle limit is reached.
func (c *Core) Tick() bool {
	if c.Done() || c.limitReached() {
		return false
	}

	memOut := c.Memory.Outputs()

	in := cache.Inputs{Bus: memOut, Abort: c.abortNow}
	var access Access
	if c.next < len(c.accesses) {
		access = c.accesses[c.next]
		in.Req = access.Req
		in.Req.Valid = true
	}

	out := c.Cache.Step(in)
	c.Memory.Step(out.Bus)

	if c.abortNow {
		c.stats.Aborted++
		c.abortNow = false
	}

	if out.Resp.Valid {
		c.complete(out.Resp)
	}

	switch {
	case out.Ready && in.Req.Valid:
		c.accept(access)
	case in.Req.Valid:
		c.stats.StallCycles++
	}

	c.reportBursts()
	c.stats.Cycles++

	return true
}

func (c *Core) limitReached() bool {
	return c.maxCycles > 0 && c.stats.Cycles >= c.maxCycles
}

func (c *Core) accept(access Access) {
	c.stats.Accepted++

	if access.Abort && access.Req.IsWrite() {
		c.abortNow = true
	} else {
		c.inflight = append(c.inflight, c.next)
	}

	c.next++
}

func (c *Core) complete(resp cache.Response) {
	if len(c.inflight) == 0 {
		panic(fmt.Sprintf("core: response %#x at cycle %d without a request",
			resp.Data, c.stats.Cycles))
	}

	index := c.inflight[0]
	c.inflight = c.inflight[1:]

	completion := Completion{
		Index: index,
		Req:   c.accesses[index].Req,
		Data:  resp.Data,
		Cycle: c.stats.Cycles,
	}
	c.completions = append(c.completions, completion)
	c.stats.Completed++

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosResponse,
		Item:   completion,
	})
}

func (c *Core) reportBursts() {
	txns := c.Memory.Transactions()
	for ; c.bursts < len(txns); c.bursts++ {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosBurst,
			Item:   txns[c.bursts],
			Detail: c.stats.Cycles,
		})
	}
}

// Transactions returns the bursts completed on the bus so far.
func (c *Core) Transactions() []nasti.Transaction {
	return c.Memory.Transactions()
}

// Run ticks the system until every access is answered.
func (c *Core) Run() error {
	for c.Tick() {
	}

	if !c.Done() {
		return fmt.Errorf("%w after %d cycles", ErrCycleLimit, c.stats.Cycles)
	}

	return nil
}
