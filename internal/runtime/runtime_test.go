package runtime

import (
	"sort"
	"sync"
	"time"
)

// fakeScheduler queues callbacks and fires them in schedule order, so tests
// drive the timer-based sequencing deterministically.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	at   time.Duration
	seq  int
	fn   func()
	done bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (f *fakeScheduler) AfterFunc(d time.Duration, fn func()) CancelFunc {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{at: f.now + d, seq: f.seq, fn: fn}
	f.seq++
	f.timers = append(f.timers, t)
	return func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		if t.done {
			return false
		}
		t.done = true
		return true
	}
}

// fire runs the earliest pending callback. Reports whether one ran.
func (f *fakeScheduler) fire() bool {
	f.mu.Lock()
	var pending []*fakeTimer
	for _, t := range f.timers {
		if !t.done {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		f.mu.Unlock()
		return false
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].at != pending[j].at {
			return pending[i].at < pending[j].at
		}
		return pending[i].seq < pending[j].seq
	})
	t := pending[0]
	t.done = true
	f.now = t.at
	f.mu.Unlock()

	t.fn()
	return true
}

// drain fires queued callbacks, including any they schedule, until none
// remain.
func (f *fakeScheduler) drain() {
	for f.fire() {
	}
}

// pendingCount reports how many queued callbacks have not fired or been
// cancelled.
func (f *fakeScheduler) pendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// recorder captures everything broadcast to rooms.
type recorder struct {
	mu       sync.Mutex
	messages []ChatMessage
	syncs    []Snapshot
	events   []Event
}

func (r *recorder) Message(room string, msg ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) Sync(room string, snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncs = append(r.syncs, snap)
}

func (r *recorder) Event(room string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) eventsOfType(eventType string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) messagesOfType(msgType string) []ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ChatMessage
	for _, msg := range r.messages {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}
