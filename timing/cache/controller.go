package cache

import (
	"fmt"

	"github.com/sarchlab/minicache/nasti"
)

// State is the state of the controller.
type State int

// Controller states.
const (
	StateIdle State = iota
	StateReadCache
	StateWriteCache
	StateWriteBack
	StateWriteAck
	StateRefillReady
	StateRefill
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReadCache:
		return "ReadCache"
	case StateWriteCache:
		return "WriteCache"
	case StateWriteBack:
		return "WriteBack"
	case StateWriteAck:
		return "WriteAck"
	case StateRefillReady:
		return "RefillReady"
	case StateRefill:
		return "Refill"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Request is what the requester presents to the cache in a cycle. A zero
// Mask is a read; otherwise bit i of Mask enables byte i of Data.
type Request struct {
	Valid bool
	Addr  uint64
	Data  uint64
	Mask  uint64
}

// IsWrite reports whether the request writes any byte.
func (r Request) IsWrite() bool {
	return r.Mask != 0
}

// Response completes one accepted request.
type Response struct {
	Valid bool
	Data  uint64
}

// Inputs are the signals sampled by the controller in one cycle.
type Inputs struct {
	Req   Request
	Abort bool
	Bus   nasti.SlavePorts
}

// Outputs are the signals driven by the controller in one cycle.
type Outputs struct {
	// Ready tells the requester that the request presented this cycle is
	// accepted.
	Ready bool
	Resp  Response
	Bus   nasti.MasterPorts
}

// Controller is a direct-mapped write-back cache controller. Each call to
// Step is one clock cycle.
type Controller struct {
	config Config
	store  *Store
	refill *RefillBuffer

	state State

	pending     Request
	outstanding bool
	justFilled  bool

	readCount  *nasti.Counter
	writeCount *nasti.Counter
	victim     []uint64

	stats Statistics
}

// NewController creates a controller with an empty, all-invalid store.
func NewController(config Config) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Controller{
		config:     config,
		store:      NewStore(config),
		refill:     NewRefillBuffer(config),
		state:      StateIdle,
		readCount:  nasti.NewCounter(config.DataBeats()),
		writeCount: nasti.NewCounter(config.DataBeats()),
	}, nil
}

// Config returns the cache configuration.
func (c *Controller) Config() Config {
	return c.config
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Stats returns cache statistics.
func (c *Controller) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Controller) ResetStats() {
	c.stats = Statistics{}
}

// Meta returns the metadata of a set.
func (c *Controller) Meta(set int) Meta {
	return c.store.Meta(set)
}

// Line returns a copy of the data of a set.
func (c *Controller) Line(set int) []uint64 {
	return c.store.Line(set)
}

// Preload installs a line directly, bypassing the bus. It is meant for
// bringing a cache up in a known state.
func (c *Controller) Preload(set int, tag uint64, line []uint64, dirty bool) {
	c.store.Fill(set, tag, line, dirty)
}

// CheckInvariants verifies the metadata invariants of the store.
func (c *Controller) CheckInvariants() error {
	return c.store.CheckInvariants()
}

type lookup struct {
	set   int
	tag   uint64
	meta  Meta
	hit   bool
	dirty bool
}

func (c *Controller) lookup() lookup {
	set := c.config.Index(c.pending.Addr)
	tag := c.config.Tag(c.pending.Addr)
	meta := c.store.Meta(set)

	return lookup{
		set:   set,
		tag:   tag,
		meta:  meta,
		hit:   meta.Valid && meta.Tag == tag,
		dirty: meta.Valid && meta.Dirty,
	}
}

// Ready reports whether a request presented this cycle would be accepted. It
// depends on registered state only.
func (c *Controller) Ready() bool {
	return c.ready(c.lookup())
}

func (c *Controller) ready(l lookup) bool {
	return c.state == StateIdle || (c.state == StateReadCache && l.hit)
}

// Response returns the response driven this cycle. It depends on registered
// state only.
func (c *Controller) Response() Response {
	l := c.lookup()
	return c.response(l, c.ready(l))
}

func (c *Controller) response(l lookup, ready bool) Response {
	return Response{
		Valid: ready && c.outstanding,
		Data:  c.store.Word(l.set, c.config.WordOffset(c.pending.Addr)),
	}
}

// Step evaluates one clock cycle and latches the next state.
func (c *Controller) Step(in Inputs) Outputs {
	c.stats.Cycles++

	l := c.lookup()
	out := Outputs{Ready: c.ready(l)}
	out.Resp = c.response(l, out.Ready)
	out.Bus = c.driveBus(l, in.Abort)

	bus := nasti.Connect(out.Bus, in.Bus)
	justFilled := false

	switch c.state {
	case StateIdle:
		c.accept(in.Req)
	case StateReadCache:
		if l.hit {
			c.stats.Hits++
			c.accept(in.Req)
		} else {
			c.startMiss(bus, l)
		}
	case StateWriteCache:
		c.stepWriteCache(in, bus, l)
	case StateWriteBack:
		if bus.W.Fire() && c.writeCount.Inc() {
			c.victim = nil
			c.state = StateWriteAck
		}
	case StateWriteAck:
		if bus.B.Fire() {
			c.state = StateRefillReady
		}
	case StateRefillReady:
		if bus.AR.Fire() {
			c.state = StateRefill
		}
	case StateRefill:
		if bus.R.Fire() {
			justFilled = c.acceptBeat(bus.R.Bits, l)
		}
	}

	c.justFilled = justFilled

	return out
}

func (c *Controller) driveBus(l lookup, abort bool) nasti.MasterPorts {
	var ports nasti.MasterPorts

	miss := (c.state == StateReadCache && !l.hit) ||
		(c.state == StateWriteCache && !(l.hit || c.justFilled || abort))

	ports.AW.Valid = miss && l.dirty
	ports.AW.Bits = c.burst(l.meta.Tag, l.set)
	ports.AR.Valid = (miss && !l.dirty) || c.state == StateRefillReady
	ports.AR.Bits = c.burst(l.tag, l.set)

	if c.state == StateWriteBack {
		ports.W.Valid = true
		ports.W.Bits = nasti.WriteDataBeat{
			Data: c.victim[c.writeCount.Value()],
			Last: c.writeCount.Wrap(),
		}
	}

	ports.BReady = c.state == StateWriteAck
	ports.RReady = c.state == StateRefill

	return ports
}

func (c *Controller) burst(tag uint64, set int) nasti.AddrBeat {
	return nasti.AddrBeat{
		ID:   0,
		Addr: c.config.BlockAddr(tag, set),
		Size: c.config.Bus.BurstSize(),
		Len:  uint8(c.config.DataBeats() - 1),
	}
}

// accept latches the request presented in a cycle where the controller is
// ready. A request that is not valid leaves the controller idle.
func (c *Controller) accept(req Request) {
	c.pending = Request{
		Valid: req.Valid,
		Addr:  req.Addr & c.config.WordMask(),
		Data:  req.Data & c.config.WordMask(),
		Mask:  req.Mask & c.config.LaneMask(),
	}
	c.outstanding = req.Valid

	switch {
	case !req.Valid:
		c.state = StateIdle
	case c.pending.IsWrite():
		c.stats.Writes++
		c.state = StateWriteCache
	default:
		c.stats.Reads++
		c.state = StateReadCache
	}
}

func (c *Controller) stepWriteCache(in Inputs, bus nasti.Bus, l lookup) {
	switch {
	case in.Abort:
		c.stats.Aborts++
		c.outstanding = false
		c.state = StateIdle
	case l.hit || c.justFilled:
		if !c.justFilled {
			c.stats.Hits++
		}
		c.store.WriteWord(l.set, c.config.WordOffset(c.pending.Addr),
			c.pending.Data, c.pending.Mask)
		c.state = StateIdle
	default:
		c.startMiss(bus, l)
	}
}

func (c *Controller) startMiss(bus nasti.Bus, l lookup) {
	switch {
	case bus.AW.Fire():
		c.stats.Misses++
		c.stats.Writebacks++
		c.victim = nasti.Repack(c.store.Line(l.set), c.config.XLen,
			c.config.Bus.DataBits)
		c.state = StateWriteBack
	case bus.AR.Fire():
		c.stats.Misses++
		c.state = StateRefill
	}
}

// acceptBeat stores one refill beat and commits the line on the final beat.
// It reports whether the line was committed.
func (c *Controller) acceptBeat(beat nasti.ReadDataBeat, l lookup) bool {
	c.refill.Set(c.readCount.Value(), beat.Data&c.config.Bus.DataMask())
	if !c.readCount.Inc() {
		return false
	}

	c.store.Fill(l.set, l.tag, c.refill.Block(), false)
	c.stats.Refills++

	if c.pending.IsWrite() {
		c.state = StateWriteCache
	} else {
		c.state = StateIdle
	}

	return true
}
