package editor

import (
	"sync/atomic"
	"testing"
	"time"

	"flyingbus/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStoreStartsClean(t *testing.T) {
	s := NewDraftStore(models.DraftRecord{})
	assert.False(t, s.Dirty())
	assert.Empty(t, s.ID())
	assert.Equal(t, models.StatusDraft, s.Status())

	existing := NewDraftStore(models.DraftRecord{ID: "a1", Title: "Hello", Content: "World", CategoryID: "c1"})
	assert.False(t, existing.Dirty())
	assert.Equal(t, "a1", existing.ID())
}

func TestDraftStoreDirtyTracking(t *testing.T) {
	s := NewDraftStore(models.DraftRecord{})

	s.SetTitle("Hello")
	assert.True(t, s.Dirty())

	snap := s.Snapshot()
	require.NoError(t, s.MarkSaved(snap, "a1", time.Now()))
	assert.False(t, s.Dirty())
	assert.Equal(t, "a1", s.ID())

	s.SetContent("<p>World</p>")
	assert.True(t, s.Dirty())

	s.SetContent("")
	assert.False(t, s.Dirty(), "reverting to the saved content is clean")
}

func TestDraftStoreEditsDuringSaveStayDirty(t *testing.T) {
	s := NewDraftStore(models.DraftRecord{})
	s.SetTitle("Hello")
	snap := s.Snapshot()

	s.SetTitle("Hello again")
	require.NoError(t, s.MarkSaved(snap, "a1", time.Now()))

	assert.True(t, s.Dirty())
}

func TestDraftStoreIDAssignedOnce(t *testing.T) {
	s := NewDraftStore(models.DraftRecord{})
	s.SetTitle("Hello")

	require.NoError(t, s.MarkSaved(s.Snapshot(), "a1", time.Now()))
	require.NoError(t, s.MarkSaved(s.Snapshot(), "a1", time.Now()))
	assert.ErrorIs(t, s.MarkSaved(s.Snapshot(), "b2", time.Now()), ErrIDReassigned)
	assert.Equal(t, "a1", s.ID())
}

func TestDraftStoreOnChangeOnlyForRealChanges(t *testing.T) {
	s := NewDraftStore(models.DraftRecord{})
	var changes atomic.Int32
	s.OnChange(func() { changes.Add(1) })

	s.SetTitle("Hello")
	s.SetTitle("Hello")
	s.SetCategoryID("c1")

	assert.Equal(t, int32(2), changes.Load())
}

func TestDraftStoreKeepsOnlyMatchingPayload(t *testing.T) {
	s := NewDraftStore(models.DraftRecord{})
	s.SetArticleType(models.ArticleTypeDebate)
	s.SetDebateSettings(&models.DebateSettings{Question: "Uniforms?"})
	s.SetVideoURL("https://example.com/v.mp4")

	snap := s.Snapshot()
	require.NotNil(t, snap.DebateSettings)
	assert.Empty(t, snap.VideoURL)

	s.SetArticleType(models.ArticleTypeVideo)
	snap = s.Snapshot()
	assert.Nil(t, snap.DebateSettings)
	assert.Equal(t, "https://example.com/v.mp4", snap.VideoURL)

	s.SetArticleType(models.ArticleTypeDebate)
	assert.Equal(t, "Uniforms?", s.Snapshot().DebateSettings.Question, "switching back restores the form")
}

func TestDraftStoreSnapshotIsACopy(t *testing.T) {
	s := NewDraftStore(models.DraftRecord{ArticleType: models.ArticleTypeStoryboard})
	s.SetStoryboardEpisodes([]models.StoryboardEpisode{{Title: "One"}})

	snap := s.Snapshot()
	snap.StoryboardEpisodes[0].Title = "changed"

	assert.Equal(t, "One", s.Snapshot().StoryboardEpisodes[0].Title)
}

func TestDraftStoreApplyPatch(t *testing.T) {
	s := NewDraftStore(models.DraftRecord{})
	title, category := "Hello", "c1"
	var changes atomic.Int32
	s.OnChange(func() { changes.Add(1) })

	s.Apply(models.DraftPatch{Title: &title, CategoryID: &category})

	snap := s.Snapshot()
	assert.Equal(t, "Hello", snap.Title)
	assert.Equal(t, "c1", snap.CategoryID)
	assert.Equal(t, int32(1), changes.Load())
}
