package nasti

import "fmt"

// Counter counts the beats of a burst modulo the burst length.
type Counter struct {
	n     int
	value int
}

// NewCounter creates a counter that wraps after n increments.
func NewCounter(n int) *Counter {
	if n <= 0 {
		panic(fmt.Sprintf("nasti: counter length %d must be positive", n))
	}

	return &Counter{n: n}
}

// N returns the counter length.
func (c *Counter) N() int {
	return c.n
}

// Value returns the index of the next beat.
func (c *Counter) Value() int {
	return c.value
}

// Wrap reports whether the next increment is the final beat.
func (c *Counter) Wrap() bool {
	return c.value == c.n-1
}

// Inc advances the counter by one beat and reports whether it wrapped.
func (c *Counter) Inc() bool {
	wrap := c.Wrap()
	if wrap {
		c.value = 0
	} else {
		c.value++
	}

	return wrap
}

// Reset returns the counter to zero.
func (c *Counter) Reset() {
	c.value = 0
}
