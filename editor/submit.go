package editor

import (
	"context"
	"errors"
	"sync"

	"flyingbus/gateway"
	"flyingbus/models"
)

type SubmitState string

const (
	SubmitIdle       SubmitState = "idle"
	SubmitValidating SubmitState = "validating"
	SubmitSaving     SubmitState = "saving"
	SubmitSubmitting SubmitState = "submitting"
	SubmitSuccess    SubmitState = "success"
	SubmitFailed     SubmitState = "failed"
)

var (
	ErrSubmissionInProgress = errors.New("editor: submission already in progress")
	ErrAlreadySubmitted     = errors.New("editor: draft already submitted")
)

// TransitionError means the draft was saved but the store refused to move it
// into review. The id is kept so the submission can be retried.
type TransitionError struct {
	ID  string
	Err error
}

func (e *TransitionError) Error() string {
	return "editor: submit for review failed for " + e.ID + ": " + e.Err.Error()
}

func (e *TransitionError) Unwrap() error { return e.Err }

// Submitter moves a draft into the moderation queue, once per action.
type Submitter struct {
	store     *DraftStore
	saver     *Saver
	autosave  *Autosaver
	gw        gateway.Gateway
	validator *Validator

	mu        sync.Mutex
	state     SubmitState
	locked    bool
	submitted bool
	lastErr   error
	onState   func(SubmitState, error)
}

func NewSubmitter(store *DraftStore, saver *Saver, autosave *Autosaver, gw gateway.Gateway, v *Validator) *Submitter {
	if v == nil {
		v = NewValidator()
	}
	return &Submitter{
		store:     store,
		saver:     saver,
		autosave:  autosave,
		gw:        gw,
		validator: v,
		state:     SubmitIdle,
	}
}

// Submit validates, force-saves and transitions the draft. A call made while
// another is running returns ErrSubmissionInProgress without doing anything.
func (s *Submitter) Submit(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.locked {
		s.mu.Unlock()
		return "", ErrSubmissionInProgress
	}
	if s.submitted {
		s.mu.Unlock()
		return s.store.ID(), ErrAlreadySubmitted
	}
	s.locked = true
	s.mu.Unlock()

	s.autosave.Suspend()

	id, err := s.run(ctx)

	if err == nil {
		s.autosave.Latch()
		s.store.SetStatus(models.StatusPendingReview)
	}

	s.mu.Lock()
	s.locked = false
	s.lastErr = err
	if err == nil {
		s.submitted = true
	}
	s.mu.Unlock()

	if err == nil {
		s.setState(SubmitSuccess, nil)
	} else {
		s.autosave.Resume()
		s.setState(SubmitFailed, err)
	}
	s.setState(SubmitIdle, err)

	return id, err
}

func (s *Submitter) run(ctx context.Context) (string, error) {
	s.setState(SubmitValidating, nil)
	if err := s.validator.Validate(s.store.Snapshot()); err != nil {
		return "", err
	}

	s.setState(SubmitSaving, nil)
	id, err := s.saver.Persist(ctx, true)
	if err != nil {
		return "", err
	}

	s.setState(SubmitSubmitting, nil)
	res := s.gw.TransitionStatus(ctx, id)
	if !res.Success {
		return id, &TransitionError{ID: id, Err: res.Err()}
	}
	return id, nil
}

func (s *Submitter) setState(state SubmitState, err error) {
	s.mu.Lock()
	s.state = state
	notify := s.onState
	s.mu.Unlock()

	if notify != nil {
		notify(state, err)
	}
}

func (s *Submitter) State() SubmitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Locked reports whether a submission is running.
func (s *Submitter) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// ifEditable runs fn while no submission holds or has released the lock, so
// an accepted edit always lands before the submission snapshot.
func (s *Submitter) ifEditable(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return ErrSubmissionInProgress
	}
	if s.submitted {
		return ErrAlreadySubmitted
	}
	fn()
	return nil
}

func (s *Submitter) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

func (s *Submitter) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Submitter) OnState(fn func(SubmitState, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}
