package core

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// Component lets an Akita engine clock a Core, one tick per cycle.
type Component struct {
	*sim.TickingComponent

	core *Core
}

// NewComponent creates a ticking component that drives core at freq.
func NewComponent(
	name string,
	engine sim.Engine,
	freq sim.Freq,
	core *Core,
) *Component {
	c := &Component{core: core}
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, core)

	return c
}

// Core returns the clocked system.
func (c *Component) Core() *Core {
	return c.core
}

// RunOnEngine schedules the first tick and runs the engine until the core
// stops making progress. It returns ErrCycleLimit if the core stopped
// before every access was answered.
func RunOnEngine(engine sim.Engine, comp *Component) error {
	comp.TickLater()

	if err := engine.Run(); err != nil {
		return err
	}

	if !comp.core.Done() {
		return fmt.Errorf("%w after %d cycles",
			ErrCycleLimit, comp.core.Stats().Cycles)
	}

	return nil
}
