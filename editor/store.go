package editor

import (
	"errors"
	"sync"
	"time"

	"flyingbus/models"
)

var ErrIDReassigned = errors.New("editor: draft id is already assigned")

// DraftStore holds the form state of one editing session. It never talks to
// the network; Saver reads snapshots from it and records what was persisted.
type DraftStore struct {
	mu        sync.RWMutex
	current   models.DraftRecord
	id        string
	status    models.ArticleStatus
	saved     *models.DraftRecord
	savedAt   time.Time
	listeners []func()
}

// NewDraftStore starts from initial. A record with an id is treated as
// already persisted, so the store starts clean.
func NewDraftStore(initial models.DraftRecord) *DraftStore {
	rec := initial.Clone()
	if rec.ArticleType == "" {
		rec.ArticleType = models.ArticleTypeStandard
	}

	s := &DraftStore{id: rec.ID, status: rec.Status}
	if s.status == "" {
		s.status = models.StatusDraft
	}
	rec.ID = ""
	rec.Status = ""
	s.current = rec

	if s.id != "" {
		saved := baseline(rec)
		s.saved = &saved
	}
	return s
}

// OnChange registers fn to run after every edit that changed the form.
func (s *DraftStore) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *DraftStore) SetTitle(v string) {
	s.update(func(r *models.DraftRecord) { r.Title = v })
}

func (s *DraftStore) SetContent(v string) {
	s.update(func(r *models.DraftRecord) { r.Content = v })
}

func (s *DraftStore) SetExcerpt(v string) {
	s.update(func(r *models.DraftRecord) { r.Excerpt = v })
}

func (s *DraftStore) SetCategoryID(v string) {
	s.update(func(r *models.DraftRecord) { r.CategoryID = v })
}

func (s *DraftStore) SetImageURL(v string) {
	s.update(func(r *models.DraftRecord) { r.ImageURL = v })
}

func (s *DraftStore) SetArticleType(v models.ArticleType) {
	s.update(func(r *models.DraftRecord) { r.ArticleType = v })
}

func (s *DraftStore) SetDebateSettings(v *models.DebateSettings) {
	s.update(func(r *models.DraftRecord) {
		if v == nil {
			r.DebateSettings = nil
			return
		}
		ds := *v
		r.DebateSettings = &ds
	})
}

func (s *DraftStore) SetVideoURL(v string) {
	s.update(func(r *models.DraftRecord) { r.VideoURL = v })
}

func (s *DraftStore) SetStoryboardEpisodes(v []models.StoryboardEpisode) {
	s.update(func(r *models.DraftRecord) {
		eps := make([]models.StoryboardEpisode, len(v))
		copy(eps, v)
		r.StoryboardEpisodes = eps
	})
}

// Apply sets every non-nil field of patch as a single change.
func (s *DraftStore) Apply(p models.DraftPatch) {
	s.update(func(r *models.DraftRecord) {
		if p.Title != nil {
			r.Title = *p.Title
		}
		if p.Content != nil {
			r.Content = *p.Content
		}
		if p.Excerpt != nil {
			r.Excerpt = *p.Excerpt
		}
		if p.CategoryID != nil {
			r.CategoryID = *p.CategoryID
		}
		if p.ImageURL != nil {
			r.ImageURL = *p.ImageURL
		}
		if p.ArticleType != nil {
			r.ArticleType = *p.ArticleType
		}
		if p.DebateSettings != nil {
			ds := *p.DebateSettings
			r.DebateSettings = &ds
		}
		if p.VideoURL != nil {
			r.VideoURL = *p.VideoURL
		}
		if p.StoryboardEpisodes != nil {
			eps := make([]models.StoryboardEpisode, len(*p.StoryboardEpisodes))
			copy(eps, *p.StoryboardEpisodes)
			r.StoryboardEpisodes = eps
		}
	})
}

func (s *DraftStore) update(mutate func(r *models.DraftRecord)) {
	s.mu.Lock()
	before := s.current.Normalize()
	mutate(&s.current)
	after := s.current.Normalize()
	changed := before.Content != after.Content || before.FormSignature() != after.FormSignature()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn()
	}
}

// Snapshot returns a deep copy of the normalized form with id and status.
func (s *DraftStore) Snapshot() models.DraftRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.current.Normalize().Clone()
	snap.ID = s.id
	snap.Status = s.status
	return snap
}

// Dirty compares the form with the last persisted snapshot: content by string
// equality, everything else by its serialized form.
func (s *DraftStore) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := baseline(models.DraftRecord{})
	if s.saved != nil {
		base = *s.saved
	}
	cur := s.current.Normalize()
	return cur.Content != base.Content || cur.FormSignature() != base.FormSignature()
}

func (s *DraftStore) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *DraftStore) Status() models.ArticleStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *DraftStore) SetStatus(status models.ArticleStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// LastSavedAt is zero until the first save in this session.
func (s *DraftStore) LastSavedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedAt
}

// MarkSaved records snapshot as persisted under id. The id may be assigned
// once; afterwards only the same id is accepted.
func (s *DraftStore) MarkSaved(snapshot models.DraftRecord, id string, at time.Time) error {
	if id == "" {
		return errors.New("editor: saved draft has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" && s.id != id {
		return ErrIDReassigned
	}
	s.id = id

	saved := baseline(snapshot)
	s.saved = &saved
	s.savedAt = at
	return nil
}

func baseline(rec models.DraftRecord) models.DraftRecord {
	b := rec.Normalize().Clone()
	b.ID = ""
	b.Status = ""
	return b
}
