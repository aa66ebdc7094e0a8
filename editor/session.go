package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"flyingbus/gateway"
	"flyingbus/logger"
	"flyingbus/models"

	"github.com/sirupsen/logrus"
)

const (
	EventSaveStatus = "save_status"
	EventSubmission = "submission"
	EventClosed     = "closed"
)

// Event is pushed to session subscribers whenever the save indicator or the
// submission state changes.
type Event struct {
	Type            string      `json:"type"`
	SessionID       string      `json:"session_id"`
	DraftID         string      `json:"draft_id,omitempty"`
	SaveStatus      SaveStatus  `json:"save_status"`
	SubmissionState SubmitState `json:"submission_state"`
	LastSavedAt     *time.Time  `json:"last_saved_at,omitempty"`
	Error           string      `json:"error,omitempty"`
}

type Options struct {
	AutosaveInterval time.Duration
	Validator        *Validator
	Logger           *logger.Logger
	Now              func() time.Time
}

// Session is one open editor: a draft store plus its autosave and submission
// coordinators.
type Session struct {
	id       string
	authorID uint

	store    *DraftStore
	saver    *Saver
	autosave *Autosaver
	submit   *Submitter
	now      func() time.Time
	log      *logrus.Entry

	mu           sync.Mutex
	closed       bool
	lastActivity time.Time
	listeners    map[int]func(Event)
	nextListener int
}

func NewSession(id string, authorID uint, initial models.DraftRecord, gw gateway.Gateway, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	log := opts.Logger.WithSession(id).WithField("author_id", authorID)
	store := NewDraftStore(initial)
	saver := NewSaver(gw, store, opts.Now)
	autosave := NewAutosaver(store, saver, opts.AutosaveInterval, log)
	submit := NewSubmitter(store, saver, autosave, gw, opts.Validator)

	s := &Session{
		id:           id,
		authorID:     authorID,
		store:        store,
		saver:        saver,
		autosave:     autosave,
		submit:       submit,
		now:          opts.Now,
		log:          log,
		lastActivity: opts.Now(),
		listeners:    make(map[int]func(Event)),
	}

	saver.OnStatus(func(status SaveStatus) {
		ev := s.event(EventSaveStatus)
		if status == SaveFailed {
			if err := saver.LastError(); err != nil {
				ev.Error = err.Error()
			}
		}
		s.emit(ev)
	})
	submit.OnState(func(state SubmitState, err error) {
		ev := s.event(EventSubmission)
		ev.SubmissionState = state
		if err != nil {
			ev.Error = err.Error()
		}
		s.emit(ev)
	})

	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) AuthorID() uint { return s.authorID }

func (s *Session) Store() *DraftStore { return s.store }

func (s *Session) Autosaver() *Autosaver { return s.autosave }

// Submitted reports whether the draft reached review through this session.
func (s *Session) Submitted() bool { return s.submit.Submitted() }

// Apply edits the draft. Edits are refused while a submission runs and after
// it succeeded.
func (s *Session) Apply(patch models.DraftPatch) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	s.touch()
	return s.submit.ifEditable(func() { s.store.Apply(patch) })
}

// Save is the manual "Save draft" action; it takes the autosave path.
func (s *Session) Save(ctx context.Context) (string, error) {
	if err := s.editable(); err != nil {
		return "", err
	}
	s.touch()
	return s.saver.Persist(ctx, false)
}

func (s *Session) Submit(ctx context.Context) (string, error) {
	if s.isClosed() {
		return "", ErrSessionClosed
	}
	s.touch()

	id, err := s.submit.Submit(ctx)
	switch {
	case err == nil:
		s.log.WithField("article_id", id).Info("draft submitted for review")
	case errors.Is(err, ErrSubmissionInProgress), errors.Is(err, ErrAlreadySubmitted):
	default:
		s.log.WithError(err).Warn("submission failed")
	}
	return id, err
}

func (s *Session) View() models.SessionView {
	view := models.SessionView{
		SessionID:       s.id,
		Draft:           s.store.Snapshot(),
		Dirty:           s.store.Dirty(),
		SaveStatus:      string(s.saver.Status()),
		SubmissionState: string(s.submit.State()),
		Submitted:       s.submit.Submitted(),
	}
	if at := s.store.LastSavedAt(); !at.IsZero() {
		view.LastSavedAt = &at
	}
	return view
}

// Subscribe registers fn for session events and returns its cancel func.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// LastActivity is the time of the last edit, save or submit call.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Close stops pending timers. In-flight calls finish but their results are
// dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.autosave.Stop()
	s.saver.Close()
	s.emit(s.event(EventClosed))

	s.mu.Lock()
	s.listeners = make(map[int]func(Event))
	s.mu.Unlock()
}

func (s *Session) editable() error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if s.submit.Locked() {
		return ErrSubmissionInProgress
	}
	if s.submit.Submitted() {
		return ErrAlreadySubmitted
	}
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = s.now()
}

func (s *Session) event(kind string) Event {
	ev := Event{
		Type:            kind,
		SessionID:       s.id,
		DraftID:         s.store.ID(),
		SaveStatus:      s.saver.Status(),
		SubmissionState: s.submit.State(),
	}
	if at := s.store.LastSavedAt(); !at.IsZero() {
		ev.LastSavedAt = &at
	}
	return ev
}

func (s *Session) emit(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
