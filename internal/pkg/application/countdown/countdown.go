package countdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/diwise/security-dashboard/internal/pkg/infrastructure/clock"
)

const DefaultSeconds int = 3

type State int

const (
	Idle State = iota
	Counting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Counting:
		return "counting"
	}
	panic(fmt.Sprintf("countdown state %d out of range", int(s)))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a point-in-time view of a countdown.
type Status struct {
	State     State `json:"state"`
	Remaining int   `json:"remaining"`
	Disabled  bool  `json:"disabled"`
}

type Option func(*Countdown)

func WithSeconds(seconds int) Option {
	return func(c *Countdown) {
		if seconds >= 1 {
			c.seconds = seconds
		}
	}
}

// OnTick registers an observer that is told about every change of state.
func OnTick(fn func(Status)) Option {
	return func(c *Countdown) {
		c.onTick = fn
	}
}

// Countdown delays a confirmation by a number of one-second ticks. Activating
// it again while counting cancels without confirming.
type Countdown struct {
	mu sync.Mutex

	clock     clock.Clock
	onConfirm func()
	onTick    func(Status)
	seconds   int

	state      State
	remaining  int
	disabled   bool
	task       clock.Task
	generation uint64
}

func New(c clock.Clock, onConfirm func(), opts ...Option) *Countdown {
	cd := &Countdown{
		clock:     c,
		onConfirm: onConfirm,
		seconds:   DefaultSeconds,
	}

	for _, opt := range opts {
		opt(cd)
	}

	cd.remaining = cd.seconds

	return cd
}

// Activate starts the countdown from Idle, or cancels it while counting. It
// does nothing when the control is disabled.
func (c *Countdown) Activate() Status {
	c.mu.Lock()

	if c.disabled {
		s := c.status()
		c.mu.Unlock()
		return s
	}

	if c.state == Counting {
		c.reset()
	} else {
		c.state = Counting
		c.remaining = c.seconds
		c.generation++

		gen := c.generation
		c.task = c.clock.Every(time.Second, func() { c.tick(gen) })
	}

	s := c.status()
	c.mu.Unlock()

	c.notify(s)

	return s
}

func (c *Countdown) tick(gen uint64) {
	c.mu.Lock()

	if gen != c.generation || c.state != Counting {
		c.mu.Unlock()
		return
	}

	confirmed := false
	if c.remaining <= 1 {
		c.reset()
		confirmed = true
	} else {
		c.remaining--
	}

	s := c.status()
	c.mu.Unlock()

	c.notify(s)

	if confirmed && c.onConfirm != nil {
		c.onConfirm()
	}
}

// SetDisabled toggles whether Activate has any effect. A countdown already in
// progress keeps running.
func (c *Countdown) SetDisabled(disabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = disabled
}

// Close releases the timer and returns to Idle without confirming.
func (c *Countdown) Close() {
	c.mu.Lock()
	wasCounting := c.state == Counting
	c.reset()
	s := c.status()
	c.mu.Unlock()

	if wasCounting {
		c.notify(s)
	}
}

func (c *Countdown) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

// Label returns idle while not counting, otherwise the seconds left.
func (c *Countdown) Label(idle string) string {
	return c.Status().Label(idle)
}

func (s Status) Label(idle string) string {
	if s.State == Counting {
		return fmt.Sprintf("%ds until confirm...", s.Remaining)
	}
	return idle
}

func (c *Countdown) reset() {
	if c.task != nil {
		c.task.Stop()
		c.task = nil
	}
	c.generation++
	c.state = Idle
	c.remaining = c.seconds
}

func (c *Countdown) status() Status {
	return Status{
		State:     c.state,
		Remaining: c.remaining,
		Disabled:  c.disabled,
	}
}

func (c *Countdown) notify(s Status) {
	if c.onTick != nil {
		c.onTick(s)
	}
}
