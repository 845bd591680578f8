package mem

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/minicache/nasti"
	"github.com/sarchlab/minicache/timing/latency"
)

type writePhase int

const (
	writeIdle writePhase = iota
	writeData
	writeResp
)

// BusMemory serves NASTI bursts from a Memory. It accepts one read burst and
// one write burst at a time. All of its outputs are registered, so they can
// be sampled before the cache evaluates its cycle.
type BusMemory struct {
	params nasti.Params
	memory *Memory
	table  *latency.Table
	rng    *rand.Rand

	readActive bool
	readAddr   nasti.AddrBeat
	readBeat   int
	readDelay  uint64
	readData   []uint64

	writePhase writePhase
	writeAddr  nasti.AddrBeat
	writeBeat  int
	writeDelay uint64
	writeData  []uint64

	stallAR, stallAW, stallW, stallR bool

	transactions []nasti.Transaction
}

// NewBusMemory creates a bus memory in front of memory.
func NewBusMemory(
	params nasti.Params,
	memory *Memory,
	timing *latency.TimingConfig,
) *BusMemory {
	if timing == nil {
		timing = latency.DefaultTimingConfig()
	}

	return &BusMemory{
		params: params,
		memory: memory,
		table:  latency.NewTableWithConfig(timing),
		rng:    rand.New(rand.NewSource(timing.Seed)),
	}
}

// Memory returns the backing memory.
func (b *BusMemory) Memory() *Memory {
	return b.memory
}

// Outputs returns the signals the memory drives this cycle.
func (b *BusMemory) Outputs() nasti.SlavePorts {
	out := nasti.SlavePorts{
		ARReady: !b.readActive && !b.stallAR,
		AWReady: b.writePhase == writeIdle && !b.stallAW,
		WReady:  b.writePhase == writeData && !b.stallW,
	}

	if b.writePhase == writeResp && b.writeDelay == 0 {
		out.B.Valid = true
		out.B.Bits = nasti.WriteRespBeat{ID: b.writeAddr.ID}
	}

	if b.readActive && b.readDelay == 0 && !b.stallR {
		out.R.Valid = true
		out.R.Bits = nasti.ReadDataBeat{
			ID:   b.readAddr.ID,
			Data: b.readBeatData(),
			Last: b.readBeat == int(b.readAddr.Len),
		}
	}

	return out
}

func (b *BusMemory) beatAddr(base uint64, beat int) uint64 {
	return base + uint64(beat*b.params.DataBytes())
}

func (b *BusMemory) readBeatData() uint64 {
	return b.memory.ReadN(
		b.beatAddr(b.readAddr.Addr, b.readBeat), b.params.DataBytes())
}

// Step advances the memory by one cycle given the signals the cache drives.
func (b *BusMemory) Step(m nasti.MasterPorts) {
	bus := nasti.Connect(m, b.Outputs())

	b.stepRead(bus)
	b.stepWrite(bus)
	b.sampleStalls()
}

func (b *BusMemory) stepRead(bus nasti.Bus) {
	switch {
	case bus.AR.Fire():
		b.readActive = true
		b.readAddr = bus.AR.Bits
		b.readBeat = 0
		b.readDelay = b.table.GetLatency(nasti.KindRead)
		b.readData = nil
	case bus.R.Fire():
		b.readData = append(b.readData, bus.R.Bits.Data)
		if bus.R.Bits.Last {
			b.finishRead()
			return
		}
		b.readBeat++
	case b.readActive && b.readDelay > 0:
		b.readDelay--
	}
}

func (b *BusMemory) finishRead() {
	b.transactions = append(b.transactions, nasti.Transaction{
		Kind: nasti.KindRead,
		Addr: b.readAddr.Addr,
		Size: b.readAddr.Size,
		Len:  b.readAddr.Len,
		Data: b.readData,
	})
	b.readActive = false
	b.readData = nil
}

func (b *BusMemory) stepWrite(bus nasti.Bus) {
	switch b.writePhase {
	case writeIdle:
		if bus.AW.Fire() {
			b.writePhase = writeData
			b.writeAddr = bus.AW.Bits
			b.writeBeat = 0
			b.writeData = nil
		}
	case writeData:
		if bus.W.Fire() {
			b.acceptWriteBeat(bus.W.Bits)
		}
	case writeResp:
		if bus.B.Fire() {
			b.writePhase = writeIdle
		} else if b.writeDelay > 0 {
			b.writeDelay--
		}
	}
}

func (b *BusMemory) acceptWriteBeat(beat nasti.WriteDataBeat) {
	last := b.writeBeat == int(b.writeAddr.Len)
	if beat.Last != last {
		panic(fmt.Sprintf("mem: write beat %d of burst at %#x has last=%v",
			b.writeBeat, b.writeAddr.Addr, beat.Last))
	}

	b.memory.WriteN(b.beatAddr(b.writeAddr.Addr, b.writeBeat),
		b.params.DataBytes(), beat.Data)
	b.writeData = append(b.writeData, beat.Data)
	b.writeBeat++

	if last {
		b.transactions = append(b.transactions, nasti.Transaction{
			Kind: nasti.KindWrite,
			Addr: b.writeAddr.Addr,
			Size: b.writeAddr.Size,
			Len:  b.writeAddr.Len,
			Data: b.writeData,
		})
		b.writeData = nil
		b.writePhase = writeResp
		b.writeDelay = b.table.GetLatency(nasti.KindWrite)
	}
}

func (b *BusMemory) sampleStalls() {
	if b.table.StallPercent() == 0 {
		return
	}

	b.stallAR = b.stall()
	b.stallAW = b.stall()
	b.stallW = b.stall()
	b.stallR = b.stall()
}

func (b *BusMemory) stall() bool {
	return b.rng.Intn(100) < b.table.StallPercent()
}

// Busy reports whether a burst is in progress.
func (b *BusMemory) Busy() bool {
	return b.readActive || b.writePhase != writeIdle
}

// Transactions returns the bursts completed so far, in completion order.
func (b *BusMemory) Transactions() []nasti.Transaction {
	return b.transactions
}
