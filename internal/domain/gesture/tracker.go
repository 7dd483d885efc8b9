package gesture

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/MoltOS/backend/internal/domain/window"
	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/id"
)

// Tracker keeps one Handler per window and serializes pointer input per
// window. The tracker lock is never held while a handler drives the target,
// so Observe can be registered as a window observer.
type Tracker struct {
	mu       sync.Mutex
	handlers map[id.WindowID]*tracked // Protected by mu
	target   Target
	cfg      Config
	now      func() time.Time
}

type tracked struct {
	mu sync.Mutex
	h  *Handler
}

// NewTracker creates a tracker driving target
func NewTracker(target Target, cfg Config) *Tracker {
	return &Tracker{
		handlers: make(map[id.WindowID]*tracked),
		target:   target,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Dispatch routes ev to the handler of wid. Events without a timestamp are
// stamped with the current time.
func (t *Tracker) Dispatch(wid id.WindowID, ev Event) Result {
	if ev.At.IsZero() {
		ev.At = t.now()
	}
	if _, exists := t.target.Get(wid); !exists {
		t.Forget(wid)
		return Result{State: Idle, Action: ActionNone}
	}

	t.mu.Lock()
	tr, ok := t.handlers[wid]
	if !ok {
		tr = &tracked{h: NewHandler(wid, t.target, t.cfg)}
		t.handlers[wid] = tr
	}
	t.mu.Unlock()

	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.h.Handle(ev)
}

// State returns the gesture state of wid
func (t *Tracker) State(wid id.WindowID) State {
	t.mu.Lock()
	tr, ok := t.handlers[wid]
	t.mu.Unlock()
	if !ok {
		return Idle
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.h.State()
}

// Active returns the windows with a gesture in progress
func (t *Tracker) Active() map[id.WindowID]State {
	t.mu.Lock()
	snapshot := make(map[id.WindowID]*tracked, len(t.handlers))
	for wid, tr := range t.handlers {
		snapshot[wid] = tr
	}
	t.mu.Unlock()

	out := make(map[id.WindowID]State)
	for wid, tr := range snapshot {
		tr.mu.Lock()
		if s := tr.h.State(); s != Idle {
			out[wid] = s
		}
		tr.mu.Unlock()
	}
	return out
}

// Forget drops the handler of wid
func (t *Tracker) Forget(wid id.WindowID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, wid)
}

// Observe is a window.Observer that cancels gestures on windows that were
// closed or minimized.
func (t *Tracker) Observe(ev window.Event) {
	switch ev.Kind {
	case window.EventClosed:
		t.Forget(ev.WindowID)
	case window.EventMinimized:
		t.mu.Lock()
		tr, ok := t.handlers[ev.WindowID]
		t.mu.Unlock()
		if ok {
			tr.mu.Lock()
			tr.h.Cancel()
			tr.mu.Unlock()
		}
	}
}
