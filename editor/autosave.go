package editor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultAutosaveInterval = 60 * time.Second

// Autosaver persists edits after a quiet period. Failures only show in the
// save status; the next edit schedules another attempt.
type Autosaver struct {
	saver     *Saver
	store     *DraftStore
	debouncer *Debouncer
	log       *logrus.Entry

	suspended atomic.Bool
	latched   atomic.Bool
	stopped   atomic.Bool
}

func NewAutosaver(store *DraftStore, saver *Saver, interval time.Duration, log *logrus.Entry) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	a := &Autosaver{
		saver:     saver,
		store:     store,
		debouncer: NewDebouncer(interval),
		log:       log,
	}
	store.OnChange(a.Schedule)
	return a
}

// Enabled reports whether a change would currently schedule a save.
func (a *Autosaver) Enabled() bool {
	return !a.suspended.Load() && !a.latched.Load() && !a.stopped.Load()
}

// Schedule (re)starts the debounce timer unless autosave is blocked or a
// save is already in flight.
func (a *Autosaver) Schedule() {
	if !a.Enabled() || a.saver.InFlight() {
		return
	}
	a.debouncer.Debounce(a.fire)
}

func (a *Autosaver) fire() {
	if !a.Enabled() {
		return
	}

	_, err := a.saver.persist(context.Background(), false, a.Enabled)
	switch {
	case err == nil:
	case errors.Is(err, ErrSaveInFlight), errors.Is(err, ErrSessionClosed):
		return
	default:
		a.log.WithError(err).Warn("autosave failed")
		return
	}

	// Edits made while the save was in flight did not schedule anything.
	if a.store.Dirty() {
		a.Schedule()
	}
}

// Pending reports whether a save is scheduled.
func (a *Autosaver) Pending() bool {
	return a.debouncer.Pending()
}

// Suspend blocks autosave while a submission runs.
func (a *Autosaver) Suspend() {
	a.suspended.Store(true)
	a.debouncer.Cancel()
}

// Resume lifts Suspend and picks up edits that are still unsaved.
func (a *Autosaver) Resume() {
	a.suspended.Store(false)
	if a.store.Dirty() {
		a.Schedule()
	}
}

// Latch turns autosave off for the rest of the session.
func (a *Autosaver) Latch() {
	a.latched.Store(true)
	a.debouncer.Cancel()
}

func (a *Autosaver) Stop() {
	a.stopped.Store(true)
	a.debouncer.Cancel()
}
