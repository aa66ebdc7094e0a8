package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"flyingbus/gateway"
)

type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveFailed SaveStatus = "error"
)

var (
	ErrSaveInFlight  = errors.New("editor: a save is already in flight")
	ErrSessionClosed = errors.New("editor: session closed")
)

// SaveError wraps a failed upsert.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return "editor: save failed: " + e.Err.Error() }

func (e *SaveError) Unwrap() error { return e.Err }

// Saver is the single save path shared by autosave, manual save and the
// forced save of a submission. At most one upsert is in flight at a time.
type Saver struct {
	gw    gateway.Gateway
	store *DraftStore
	now   func() time.Time

	mu       sync.Mutex
	inFlight bool
	done     chan struct{}
	closed   bool
	status   SaveStatus
	lastErr  error
	onStatus func(SaveStatus)
}

func NewSaver(gw gateway.Gateway, store *DraftStore, now func() time.Time) *Saver {
	if now == nil {
		now = time.Now
	}
	return &Saver{gw: gw, store: store, now: now, status: SaveIdle}
}

// Persist saves the current snapshot. Without force it skips a clean store
// and returns ErrSaveInFlight instead of queueing behind another save. With
// force it always upserts, after waiting for any in-flight save.
func (s *Saver) Persist(ctx context.Context, force bool) (string, error) {
	return s.persist(ctx, force, nil)
}

// persist runs gate under the saver lock, so a gate that closes before the
// lock is taken stops the save from starting.
func (s *Saver) persist(ctx context.Context, force bool, gate func() bool) (string, error) {
	s.mu.Lock()
	for s.inFlight {
		if !force {
			s.mu.Unlock()
			return "", ErrSaveInFlight
		}
		done := s.done
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		s.mu.Lock()
	}

	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	if gate != nil && !gate() {
		s.mu.Unlock()
		return s.store.ID(), nil
	}
	if !force && !s.store.Dirty() {
		s.mu.Unlock()
		return s.store.ID(), nil
	}

	snap := s.store.Snapshot()
	s.inFlight = true
	s.done = make(chan struct{})
	s.status = SaveSaving
	notify := s.onStatus
	s.mu.Unlock()

	if notify != nil {
		notify(SaveSaving)
	}

	res := s.gw.UpsertDraft(ctx, snap)

	s.mu.Lock()
	s.inFlight = false
	close(s.done)

	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}

	var err error
	if res.Success {
		if markErr := s.store.MarkSaved(snap, res.ID, s.now()); markErr != nil {
			err = &SaveError{Err: markErr}
		}
	} else {
		err = &SaveError{Err: res.Err()}
	}

	if err != nil {
		s.status = SaveFailed
	} else {
		s.status = SaveSaved
	}
	s.lastErr = err
	status := s.status
	notify = s.onStatus
	s.mu.Unlock()

	if notify != nil {
		notify(status)
	}
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

func (s *Saver) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Saver) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Saver) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// OnStatus sets the save-status indicator callback.
func (s *Saver) OnStatus(fn func(SaveStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = fn
}

// Close makes results of in-flight saves be discarded.
func (s *Saver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
