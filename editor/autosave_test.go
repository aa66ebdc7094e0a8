package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"flyingbus/logger"
	"flyingbus/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInterval = 20 * time.Millisecond

func newTestSession(t *testing.T, gw *fakeGateway, initial models.DraftRecord, interval time.Duration) *Session {
	t.Helper()
	s := NewSession("s1", 7, initial, gw, Options{
		AutosaveInterval: interval,
		Logger:           logger.Discard(),
	})
	t.Cleanup(s.Close)
	return s
}

func strPtr(v string) *string { return &v }

func TestManualSaveAssignsID(t *testing.T) {
	gw := newFakeGateway("a1")
	s := newTestSession(t, gw, models.DraftRecord{}, time.Hour)

	require.NoError(t, s.Apply(models.DraftPatch{
		Title:      strPtr("Hello"),
		CategoryID: strPtr("C1"),
		Content:    strPtr("World"),
	}))

	id, err := s.Save(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "a1", id)
	require.Equal(t, 1, gw.upsertCount())
	sent := gw.upsertAt(0)
	assert.Empty(t, sent.ID)
	assert.Equal(t, "Hello", sent.Title)
	assert.Equal(t, "a1", s.Store().ID())
	assert.False(t, s.Store().Dirty())
	assert.Equal(t, string(SaveSaved), s.View().SaveStatus)
	assert.NotNil(t, s.View().LastSavedAt)
}

func TestManualSaveOfCleanDraftIsNoop(t *testing.T) {
	gw := newFakeGateway("a1")
	s := newTestSession(t, gw, models.DraftRecord{ID: "a1", Title: "Hello"}, time.Hour)

	id, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1", id)
	assert.Zero(t, gw.upsertCount())
}

func TestAutosaveFiresOnceAfterQuietPeriod(t *testing.T) {
	gw := newFakeGateway("unused")
	s := newTestSession(t, gw, models.DraftRecord{ID: "a1", Title: "Hello", CategoryID: "C1", Content: "World"}, testInterval)

	s.Store().SetContent("World, edited")

	require.Eventually(t, func() bool { return gw.upsertCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return gw.upsertCount() > 1 }, 5*testInterval, 5*time.Millisecond)

	sent := gw.upsertAt(0)
	assert.Equal(t, "a1", sent.ID)
	assert.Equal(t, "World, edited", sent.Content)
}

func TestAutosaveTimerResetsOnEachChange(t *testing.T) {
	gw := newFakeGateway("a1")
	s := newTestSession(t, gw, models.DraftRecord{}, 100*time.Millisecond)

	for _, title := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		s.Store().SetTitle(title)
		time.Sleep(10 * time.Millisecond)
	}
	assert.Zero(t, gw.upsertCount(), "no save while edits keep arriving")

	require.Eventually(t, func() bool { return gw.upsertCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Hello", gw.upsertAt(0).Title)
}

func TestAutosaveNeverOverlapsSaves(t *testing.T) {
	gw := newFakeGateway("a1")
	gate := gw.blockUpserts()
	s := newTestSession(t, gw, models.DraftRecord{}, testInterval)

	s.Store().SetTitle("first")
	require.Eventually(t, func() bool { return s.saver.InFlight() }, time.Second, 5*time.Millisecond)

	s.Store().SetTitle("second")
	s.Store().SetTitle("third")
	_, err := s.Save(context.Background())
	assert.ErrorIs(t, err, ErrSaveInFlight)
	time.Sleep(3 * testInterval)
	assert.Equal(t, 1, gw.upsertCount())

	close(gate)

	// The edits made during the flight are picked up by a follow-up cycle.
	require.Eventually(t, func() bool { return gw.upsertCount() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !s.Store().Dirty() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "third", gw.upsertAt(1).Title)
	assert.Equal(t, "a1", gw.upsertAt(1).ID)
	assert.Equal(t, 1, gw.peakInFlight())
}

func TestAutosaveFailureIsNotRetried(t *testing.T) {
	gw := newFakeGateway("a1")
	gw.failUpserts(errServer)
	s := newTestSession(t, gw, models.DraftRecord{}, testInterval)

	s.Store().SetTitle("Hello")

	require.Eventually(t, func() bool { return s.saver.Status() == SaveFailed }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return gw.upsertCount() > 1 }, 5*testInterval, 5*time.Millisecond)
	assert.True(t, s.Store().Dirty())
	assert.ErrorIs(t, s.saver.LastError(), errServer)

	s.Store().SetTitle("Hello!")
	require.Eventually(t, func() bool { return s.saver.Status() == SaveSaved }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, gw.upsertCount())
	assert.Equal(t, "a1", s.Store().ID())
}

func TestForcedSaveIsIdempotent(t *testing.T) {
	gw := newFakeGateway("a1")
	s := newTestSession(t, gw, models.DraftRecord{}, time.Hour)
	s.Store().SetTitle("Hello")

	first, err := s.saver.Persist(context.Background(), true)
	require.NoError(t, err)
	second, err := s.saver.Persist(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, "a1", first)
	assert.Equal(t, first, second)
	require.Equal(t, 2, gw.upsertCount())
	assert.Equal(t, "a1", gw.upsertAt(1).ID, "second save updates the same record")
}

func TestForcedSaveWaitsForInFlightSave(t *testing.T) {
	gw := newFakeGateway("a1")
	gate := gw.blockUpserts()
	s := newTestSession(t, gw, models.DraftRecord{}, testInterval)

	s.Store().SetTitle("Hello")
	require.Eventually(t, func() bool { return s.saver.InFlight() }, time.Second, 5*time.Millisecond)

	done := make(chan string, 1)
	go func() {
		id, _ := s.saver.Persist(context.Background(), true)
		done <- id
	}()

	time.Sleep(2 * testInterval)
	assert.Equal(t, 1, gw.upsertCount(), "forced save waits its turn")

	close(gate)
	select {
	case id := <-done:
		assert.Equal(t, "a1", id)
	case <-time.After(time.Second):
		t.Fatal("forced save did not finish")
	}
	assert.Equal(t, 2, gw.upsertCount())
	assert.Equal(t, 1, gw.peakInFlight())
}

func TestCloseCancelsPendingAutosave(t *testing.T) {
	gw := newFakeGateway("a1")
	s := newTestSession(t, gw, models.DraftRecord{}, testInterval)

	s.Store().SetTitle("Hello")
	require.True(t, s.Autosaver().Pending())
	s.Close()

	assert.Never(t, func() bool { return gw.upsertCount() > 0 }, 5*testInterval, 5*time.Millisecond)
	assert.ErrorIs(t, s.Apply(models.DraftPatch{Title: strPtr("late")}), ErrSessionClosed)
}

func TestResultAfterCloseIsDiscarded(t *testing.T) {
	gw := newFakeGateway("a1")
	gate := gw.blockUpserts()
	s := newTestSession(t, gw, models.DraftRecord{}, time.Hour)
	s.Store().SetTitle("Hello")

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Save(context.Background())
		errCh <- err
	}()
	require.Eventually(t, func() bool { return gw.upsertCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Close()
	close(gate)

	err := <-errCh
	assert.True(t, errors.Is(err, ErrSessionClosed))
	assert.Empty(t, s.Store().ID())
}
