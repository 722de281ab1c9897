package clock

import (
	"sync"
	"time"
)

// Clock is the time source and cooperative scheduler used by the dashboard.
// Every schedules fn to run once per interval until the returned Task is stopped.
type Clock interface {
	Now() time.Time
	Every(interval time.Duration, fn func()) Task
}

// Task is a handle to a repeating callback. Stop is idempotent.
type Task interface {
	Stop()
}

type realClock struct{}

func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Every(interval time.Duration, fn func()) Task {
	t := &tickerTask{
		done: make(chan struct{}),
	}

	go t.run(time.NewTicker(interval), fn)

	return t
}

type tickerTask struct {
	once sync.Once
	done chan struct{}
}

func (t *tickerTask) run(ticker *time.Ticker, fn func()) {
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			select {
			case <-t.done:
				return
			default:
				fn()
			}
		}
	}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.done) })
}
