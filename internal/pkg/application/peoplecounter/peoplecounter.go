package peoplecounter

import (
	"fmt"
	"sync"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/clock"
	"github.com/diwise/security-dashboard/pkg/types"
)

const DefaultLocation string = "Main Entrance"

type Status struct {
	Counting  bool      `json:"counting"`
	Count     int       `json:"count"`
	StartedAt time.Time `json:"startedAt,omitzero"`
}

// Counter is a manual people counter. A session runs from Start to Stop and
// is emitted as a PersonCount when stopped.
type Counter struct {
	mu       sync.Mutex
	clock    clock.Clock
	location string

	counting  bool
	count     int
	startedAt time.Time
}

func New(c clock.Clock, location string) *Counter {
	if location == "" {
		location = DefaultLocation
	}
	return &Counter{
		clock:    c,
		location: location,
	}
}

// Start begins a new session. It reports false if a session is already running.
func (c *Counter) Start() (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.counting {
		return c.status(), false
	}

	c.counting = true
	c.count = 0
	c.startedAt = c.clock.Now()

	return c.status(), true
}

// Increment records one detected person. It has no effect while not counting.
func (c *Counter) Increment() (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.counting {
		return c.status(), false
	}

	c.count++

	return c.status(), true
}

// Stop ends the running session and returns it.
func (c *Counter) Stop() (types.PersonCount, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.counting {
		return types.PersonCount{}, false
	}

	now := c.clock.Now()

	images := make([]string, 0, c.count)
	for i := 1; i <= c.count; i++ {
		images = append(images, fmt.Sprintf("/mock-person-%d.jpg", i))
	}

	session := types.PersonCount{
		ID:        fmt.Sprintf("count-%d", now.UnixMilli()),
		Timestamp: now,
		Count:     c.count,
		Images:    images,
		Location:  c.location,
	}

	c.counting = false

	return session, true
}

func (c *Counter) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

func (c *Counter) status() Status {
	return Status{
		Counting:  c.counting,
		Count:     c.count,
		StartedAt: c.startedAt,
	}
}
