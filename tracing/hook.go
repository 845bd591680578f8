package tracing

import (
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/minicache/nasti"
	"github.com/sarchlab/minicache/timing/core"
)

// Hook turns core hook invocations into trace records.
type Hook struct {
	writer Writer
}

// NewHook creates a hook that writes to writer.
func NewHook(writer Writer) *Hook {
	return &Hook{writer: writer}
}

// Func records responses and completed bursts; other positions are ignored.
func (h *Hook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case core.HookPosResponse:
		completion := ctx.Item.(core.Completion)
		h.writer.Write(Record{
			ID:    xid.New().String(),
			Cycle: completion.Cycle,
			Kind:  "response",
			Addr:  completion.Req.Addr,
			Data:  []uint64{completion.Data},
		})
	case core.HookPosBurst:
		txn := ctx.Item.(nasti.Transaction)
		cycle, _ := ctx.Detail.(uint64)
		h.writer.Write(Record{
			ID:    xid.New().String(),
			Cycle: cycle,
			Kind:  txn.Kind.String(),
			Addr:  txn.Addr,
			Data:  txn.Data,
		})
	}
}
