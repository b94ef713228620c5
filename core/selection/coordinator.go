package selection

import (
	"sync"
	"time"

	"github.com/routex/fleetlive/core/model"
)

// Selection is the single vehicle currently targeted for a booking
// action. Vehicle is a copy taken at selection time, never the store's
// live entry.
type Selection struct {
	Vehicle  model.Vehicle
	OpenedAt time.Time
}

// Coordinator holds at most one active selection. Select replaces any
// existing selection unconditionally, last caller wins; there is no
// queue.
type Coordinator struct {
	mu  sync.Mutex
	cur *Selection
	now func() time.Time
}

// New creates a Coordinator with no active selection.
func New() *Coordinator {
	return &Coordinator{now: time.Now}
}

// Select makes v the active selection and returns it.
func (c *Coordinator) Select(v model.Vehicle) Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel := Selection{Vehicle: v, OpenedAt: c.now()}
	c.cur = &sel
	return sel
}

// Current returns the active selection, if any.
func (c *Coordinator) Current() (Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == nil {
		return Selection{}, false
	}
	return *c.cur, true
}

// Clear drops the active selection.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	c.cur = nil
	c.mu.Unlock()
}
