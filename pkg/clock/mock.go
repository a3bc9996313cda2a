package clock

import (
	"sort"
	"sync"
	"time"
)

// Mock is a manually advanced Clock. Advance moves the current time and
// fires every timer whose deadline has been reached, in deadline order.
// Callbacks run on the caller's goroutine, outside the internal lock, so
// they may re-arm timers.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

type mockTimer struct {
	mock     *Mock
	deadline time.Time
	ch       chan time.Time
	fn       func()
	stopped  bool
}

func NewMock() *Mock {
	return &Mock{now: time.Unix(1700000000, 0).UTC()}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Mock) After(d time.Duration) <-chan time.Time {
	return m.addTimer(d, nil).ch
}

func (m *Mock) AfterFunc(d time.Duration, f func()) Timer {
	return m.addTimer(d, f)
}

func (m *Mock) addTimer(d time.Duration, f func()) *mockTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &mockTimer{
		mock:     m,
		deadline: m.now.Add(d),
		ch:       make(chan time.Time, 1),
		fn:       f,
	}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves time forward and fires due timers. Timers armed by a fired
// callback are honored too, as long as their deadline falls inside the
// advanced window.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.mu.Lock()
		m.now = t.deadline
		m.mu.Unlock()
		t.fire()
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

func (m *Mock) nextDue(target time.Time) *mockTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.SliceStable(m.timers, func(i, j int) bool {
		return m.timers[i].deadline.Before(m.timers[j].deadline)
	})
	for i, t := range m.timers {
		if t.stopped {
			continue
		}
		if !t.deadline.After(target) {
			t.stopped = true
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return t
		}
	}
	return nil
}

func (t *mockTimer) fire() {
	if t.fn != nil {
		t.fn()
		return
	}
	select {
	case t.ch <- t.deadline:
	default:
	}
}

func (t *mockTimer) Stop() bool {
	t.mock.mu.Lock()
	defer t.mock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}
