// Package loop is a single-threaded event loop with animation-frame
// callbacks, timers in loop time and a task queue that other goroutines can
// post to. Whoever owns the loop calls Advance once per displayed frame.
package loop

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies a pending frame callback or timer. The zero Handle is never issued.
type Handle uint64

// FrameFunc receives the loop time of the frame being produced.
type FrameFunc func(now time.Time)

type frameReq struct {
	id        Handle
	fn        FrameFunc
	cancelled bool
}

type timer struct {
	id        Handle
	at        time.Time
	seq       uint64
	fn        func()
	cancelled bool
}

// Loop is safe for concurrent use, but callbacks only ever run inside Advance.
type Loop struct {
	mu     sync.Mutex
	now    time.Time
	nextID Handle
	seq    uint64
	frames []*frameReq
	timers []*timer
	tasks  []func()
	byID   map[Handle]any
}

func New(start time.Time) *Loop {
	return &Loop{
		now:  start,
		byID: make(map[Handle]any),
	}
}

// Now returns the time passed to the most recent Advance.
func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// RequestFrame schedules fn for the next Advance. A frame requested from
// inside a frame callback runs on the following Advance, not the current one.
func (l *Loop) RequestFrame(fn FrameFunc) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	req := &frameReq{id: l.nextID, fn: fn}
	l.frames = append(l.frames, req)
	l.byID[req.id] = req
	return req.id
}

// CancelFrame drops a pending frame callback. Unknown or already run handles are ignored.
func (l *Loop) CancelFrame(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if req, ok := l.byID[h].(*frameReq); ok {
		req.cancelled = true
		delete(l.byID, h)
	}
}

// AfterFunc runs fn during the first Advance whose time is at or past now+d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.seq++
	t := &timer{id: l.nextID, at: l.now.Add(d), seq: l.seq, fn: fn}
	l.timers = append(l.timers, t)
	l.byID[t.id] = t
	return t.id
}

func (l *Loop) CancelTimer(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.byID[h].(*timer); ok {
		t.cancelled = true
		delete(l.byID, h)
	}
}

// Post queues fn to run at the start of the next Advance. It may be called from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
}

// Pending reports the number of frame callbacks waiting for the next Advance.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, req := range l.frames {
		if !req.cancelled {
			n++
		}
	}
	return n
}

// Advance moves loop time to now and runs, in order: posted tasks, due
// timers (earliest deadline first) and the frame callbacks that were
// pending when Advance was entered.
func (l *Loop) Advance(now time.Time) {
	l.mu.Lock()
	if now.After(l.now) {
		l.now = now
	}
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}

	for {
		t := l.popDueTimer()
		if t == nil {
			break
		}
		t.fn()
	}

	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	now = l.now
	l.mu.Unlock()

	for _, req := range frames {
		l.mu.Lock()
		run := !req.cancelled
		delete(l.byID, req.id)
		l.mu.Unlock()
		if run {
			req.fn(now)
		}
	}
}

func (l *Loop) popDueTimer() *timer {
	l.mu.Lock()
	defer l.mu.Unlock()

	live := l.timers[:0]
	for _, t := range l.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	l.timers = live
	if len(l.timers) == 0 {
		return nil
	}

	sort.Slice(l.timers, func(i, j int) bool {
		if l.timers[i].at.Equal(l.timers[j].at) {
			return l.timers[i].seq < l.timers[j].seq
		}
		return l.timers[i].at.Before(l.timers[j].at)
	})
	t := l.timers[0]
	if t.at.After(l.now) {
		return nil
	}
	l.timers = l.timers[1:]
	delete(l.byID, t.id)
	return t
}
