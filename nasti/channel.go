package nasti

// Decoupled is the producer side of a channel: a payload qualified by Valid.
type Decoupled[T any] struct {
	Valid bool
	Bits  T
}

// Channel is a channel with both sides of the handshake.
type Channel[T any] struct {
	Valid bool
	Ready bool
	Bits  T
}

// Fire reports whether a beat is transferred this cycle.
func (c Channel[T]) Fire() bool {
	return c.Valid && c.Ready
}

// MasterPorts are the signals driven by the cache.
type MasterPorts struct {
	AR Decoupled[AddrBeat]
	AW Decoupled[AddrBeat]
	W  Decoupled[WriteDataBeat]

	BReady bool
	RReady bool
}

// SlavePorts are the signals driven by the memory.
type SlavePorts struct {
	ARReady bool
	AWReady bool
	WReady  bool

	B Decoupled[WriteRespBeat]
	R Decoupled[ReadDataBeat]
}

// Bus is the complete set of channel signals for one cycle.
type Bus struct {
	AR Channel[AddrBeat]
	AW Channel[AddrBeat]
	W  Channel[WriteDataBeat]
	B  Channel[WriteRespBeat]
	R  Channel[ReadDataBeat]
}

// Connect joins the two sides of the bus.
func Connect(m MasterPorts, s SlavePorts) Bus {
	return Bus{
		AR: Channel[AddrBeat]{Valid: m.AR.Valid, Ready: s.ARReady, Bits: m.AR.Bits},
		AW: Channel[AddrBeat]{Valid: m.AW.Valid, Ready: s.AWReady, Bits: m.AW.Bits},
		W:  Channel[WriteDataBeat]{Valid: m.W.Valid, Ready: s.WReady, Bits: m.W.Bits},
		B:  Channel[WriteRespBeat]{Valid: s.B.Valid, Ready: m.BReady, Bits: s.B.Bits},
		R:  Channel[ReadDataBeat]{Valid: s.R.Valid, Ready: m.RReady, Bits: s.R.Bits},
	}
}

// Idle reports whether no channel transfers a beat this cycle.
func (b Bus) Idle() bool {
	return !b.AR.Fire() && !b.AW.Fire() && !b.W.Fire() &&
		!b.B.Fire() && !b.R.Fire()
}
