package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock that only moves when Advance is called. Due tasks run
// synchronously on the caller's goroutine, earliest first and in registration
// order for ties.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks map[uint64]*manualTask
}

func NewManual(start time.Time) *Manual {
	return &Manual{
		now:   start,
		tasks: map[uint64]*manualTask{},
	}
}

type manualTask struct {
	m        *Manual
	id       uint64
	interval time.Duration
	next     time.Time
	fn       func()
}

func (t *manualTask) Stop() {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	delete(t.m.tasks, t.id)
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(interval time.Duration, fn func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTask{
		m:        m,
		id:       m.seq,
		interval: interval,
		next:     m.now.Add(interval),
		fn:       fn,
	}
	m.tasks[t.id] = t

	return t
}

// Pending returns the number of tasks that have not been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves the clock forward by d, firing every task that becomes due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		t, ok := m.nextDue(target)
		if !ok {
			break
		}
		t.fn()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

func (m *Manual) nextDue(target time.Time) (*manualTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	due := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if !t.next.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil, false
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].id < due[j].id
		}
		return due[i].next.Before(due[j].next)
	})

	t := due[0]
	m.now = t.next
	t.next = t.next.Add(t.interval)

	return t, true
}
