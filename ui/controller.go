package ui

import (
	"fmt"
	"io"
	"sync"
)

// controllerWrapper turns UI events into command tokens. Repeated presses of a button that is
// already held are dropped so a held button sends exactly one start and one stop token.
type controllerWrapper struct {
	writer io.Writer

	mtx     sync.Mutex
	pressed map[button]bool
}

func newControllerWrapper(w io.Writer) *controllerWrapper {
	return &controllerWrapper{
		writer:  w,
		pressed: map[button]bool{},
	}
}

func (c *controllerWrapper) Press(b button) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.pressed[b] {
		return
	}
	c.pressed[b] = true
	c.send(b.press())
}

func (c *controllerWrapper) Release(b button) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if !c.pressed[b] {
		return
	}
	delete(c.pressed, b)
	c.send(b.release())
}

func (c *controllerWrapper) SetCarSpeed(value float64) {
	c.sendf("car=%.0f", value)
}

func (c *controllerWrapper) SetSteerSpeed(value float64) {
	c.sendf("steer=%.0f", value)
}

func (c *controllerWrapper) SetAutoHome(enabled bool) {
	value := 0
	if enabled {
		value = 1
	}
	c.sendf("autoHome=%d", value)
}

func (c *controllerWrapper) GoHome() {
	c.sendf("manualHome=1")
}

func (c *controllerWrapper) ResetPosition() {
	c.sendf("resetPosition=1")
}

func (c *controllerWrapper) sendf(format string, args ...any) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.send(fmt.Sprintf(format, args...))
}

func (c *controllerWrapper) send(command string) {
	fmt.Fprintf(c.writer, "%s\n", command)
}
