package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examly-backend/internal/model"
	"examly-backend/internal/remote"
	"examly-backend/internal/repository"
)

// fakeClock drives debounce timers manually.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	f        func()
	stopped  bool
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{clock: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, timer)
	return timer
}

// Advance moves the clock and fires every timer whose deadline passed.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, timer := range c.timers {
		if !timer.stopped && !timer.deadline.After(c.now) {
			timer.stopped = true
			due = append(due, timer)
		}
	}
	c.mu.Unlock()

	for _, timer := range due {
		timer.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = false
	t.deadline = t.clock.now.Add(d)
	return was
}

// fakeStore is an in-memory SnapshotStore that deep-copies on both sides.
type fakeStore struct {
	mu     sync.Mutex
	snaps  map[string][]byte
	pushes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{snaps: make(map[string][]byte)}
}

func (s *fakeStore) Fetch(_ context.Context, key string) (*model.RemoteSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.snaps[key]
	if !ok {
		return nil, remote.ErrNoSnapshot
	}
	var snap model.RemoteSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, remote.ErrNoSnapshot
	}
	return &snap, nil
}

func (s *fakeStore) Push(_ context.Context, key string, snap *model.RemoteSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[key] = raw
	s.pushes++
	return nil
}

func (s *fakeStore) pushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}

func (s *fakeStore) seed(t *testing.T, key string, snap *model.RemoteSnapshot) {
	t.Helper()
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	s.mu.Lock()
	s.snaps[key] = raw
	s.mu.Unlock()
}

func newSyncFixture(t *testing.T) (SyncService, *fakeStore, *fakeClock, repository.ProgressRepository, repository.FlashcardRepository) {
	t.Helper()
	setupTestDB(t)

	progressRepo := repository.NewProgressRepository()
	cardRepo := repository.NewFlashcardRepository()
	store := newFakeStore()
	clock := newFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	svc := NewSyncService(progressRepo, cardRepo, store, nil, clock, 400*time.Millisecond)
	return svc, store, clock, progressRepo, cardRepo
}

func TestSyncNow_FirstPushWithoutRemote(t *testing.T) {
	svc, store, _, progressRepo, _ := newSyncFixture(t)

	_, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)

	outcome, err := svc.SyncNow(context.Background(), 1)
	require.NoError(t, err)

	assert.False(t, outcome.AdoptedRemoteStats)
	assert.False(t, outcome.AdoptedRemoteCards)
	require.NotNil(t, outcome.Pushed)
	assert.Equal(t, 1, store.pushCount())

	snap, err := store.Fetch(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, snap.Stats)
	assert.Equal(t, uint(1), snap.Stats.UserID)
}

func TestSyncNow_AdoptsNewerRemote(t *testing.T) {
	svc, store, _, progressRepo, cardRepo := newSyncFixture(t)

	_, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)
	_, err = cardRepo.GetSet(1)
	require.NoError(t, err)

	// The remote copy was written far in the future of any local write.
	remoteTime := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	store.seed(t, "1", &model.RemoteSnapshot{
		Stats: &model.ProgressRecord{
			UserID: 1, XP: 777, Level: "Advanced",
			History:   []model.TaskResult{{Module: model.ModuleGrammar, Score: 5, MaxScore: 5}},
			UpdatedAt: remoteTime,
		},
		Flashcards: &model.FlashcardSet{
			UserID:    1,
			Cards:     []model.Flashcard{{Front: "hoch", Back: "high", Status: model.CardStatusLearning}},
			UpdatedAt: remoteTime,
		},
		UpdatedAt: remoteTime.UnixMilli(),
	})

	outcome, err := svc.SyncNow(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, outcome.AdoptedRemoteStats)
	assert.True(t, outcome.AdoptedRemoteCards)

	record, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 777, record.XP)
	assert.Len(t, record.History, 1)

	cards, err := cardRepo.GetSet(1)
	require.NoError(t, err)
	require.Len(t, cards.Cards, 1)
	assert.Equal(t, "hoch", cards.Cards[0].Front)

	// The push must advance strictly past the remote timestamp.
	require.NotNil(t, outcome.Pushed)
	assert.Greater(t, outcome.Pushed.UpdatedAt, remoteTime.UnixMilli())
}

func TestSyncNow_KeepsNewerLocal(t *testing.T) {
	svc, store, clock, progressRepo, _ := newSyncFixture(t)

	record, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)
	record.XP = 42
	record.UpdatedAt = clock.Now()
	require.NoError(t, progressRepo.Save(record))

	// A stale remote copy from long ago must lose both sides.
	staleTime := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	store.seed(t, "1", &model.RemoteSnapshot{
		Stats:     &model.ProgressRecord{UserID: 1, XP: 999999, UpdatedAt: staleTime},
		UpdatedAt: staleTime.UnixMilli(),
	})

	outcome, err := svc.SyncNow(context.Background(), 1)
	require.NoError(t, err)

	assert.False(t, outcome.AdoptedRemoteStats)
	local, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 42, local.XP)

	snap, err := store.Fetch(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 42, snap.Stats.XP, "push overwrote the stale remote copy")
}

func TestSyncNow_TimestampNeverRegresses(t *testing.T) {
	svc, store, clock, progressRepo, _ := newSyncFixture(t)

	_, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)

	// Remote document stamped ahead of this device's clock.
	ahead := clock.Now().Add(time.Hour)
	store.seed(t, "1", &model.RemoteSnapshot{UpdatedAt: ahead.UnixMilli()})

	outcome, err := svc.SyncNow(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, outcome.Pushed)
	assert.Equal(t, ahead.Add(time.Millisecond).UnixMilli(), outcome.Pushed.UpdatedAt)

	// The locally persisted stamp must match the pushed one exactly, or the
	// next sync would re-adopt its own data.
	local, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, outcome.Pushed.UpdatedAt, local.UpdatedAt.UnixMilli())
}

func TestSyncNow_FreshDeviceAdoptsRemote(t *testing.T) {
	svc, store, clock, progressRepo, cardRepo := newSyncFixture(t)

	// Another device pushed real progress a minute before this install's
	// first sync.
	remoteTime := clock.Now().Add(-time.Minute)
	store.seed(t, "1", &model.RemoteSnapshot{
		Stats: &model.ProgressRecord{
			UserID: 1, XP: 500, CompletedTasks: 12,
			History:   []model.TaskResult{{Module: model.ModuleGrammar, Score: 5, MaxScore: 5}},
			UpdatedAt: remoteTime,
		},
		Flashcards: &model.FlashcardSet{
			UserID:    1,
			Cards:     []model.Flashcard{{Front: "hoch", Back: "high", Status: model.CardStatusMastered}},
			UpdatedAt: remoteTime,
		},
		UpdatedAt: remoteTime.UnixMilli(),
	})

	// First read on the new device creates the all-zero record. It must not
	// claim precedence over the minute-old remote copy.
	record, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)
	assert.False(t, record.UpdatedAt.After(remoteTime), "a fresh record must not outrank the remote snapshot")
	_, err = cardRepo.GetSet(1)
	require.NoError(t, err)

	outcome, err := svc.SyncNow(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, outcome.AdoptedRemoteStats)
	assert.True(t, outcome.AdoptedRemoteCards)

	record, err = progressRepo.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 500, record.XP)

	// The push back must still hold the real progress.
	snap, err := store.Fetch(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 500, snap.Stats.XP, "remote progress must survive a fresh device joining")
	require.NotNil(t, snap.Flashcards)
	assert.Len(t, snap.Flashcards.Cards, 1)
}

func TestSyncNow_TwoDevicesConverge(t *testing.T) {
	// Device A pushes, device B with a fresh record then syncs and must end
	// up with A's stats rather than overwriting them.
	svcA, store, clockA, progressRepoA, _ := newSyncFixture(t)

	recordA, err := progressRepoA.GetByUserID(1)
	require.NoError(t, err)
	recordA.XP = 100
	recordA.UpdatedAt = clockA.Now()
	require.NoError(t, progressRepoA.Save(recordA))

	_, err = svcA.SyncNow(context.Background(), 1)
	require.NoError(t, err)
	pushed, err := store.Fetch(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, 100, pushed.Stats.XP)

	// Fresh database plays the part of device B; the shared store stays.
	setupTestDB(t)
	progressRepoB := repository.NewProgressRepository()
	cardRepoB := repository.NewFlashcardRepository()
	clockB := newFakeClock(time.Date(2026, 3, 10, 12, 0, 1, 0, time.UTC))
	svcB := NewSyncService(progressRepoB, cardRepoB, store, nil, clockB, 400*time.Millisecond)

	recordB, err := progressRepoB.GetByUserID(1)
	require.NoError(t, err)
	require.Equal(t, 0, recordB.XP)

	outcome, err := svcB.SyncNow(context.Background(), 1)
	require.NoError(t, err)

	// B's record was just created, so its stamp is zero and A's push wins.
	assert.True(t, outcome.AdoptedRemoteStats)
	recordB, err = progressRepoB.GetByUserID(1)
	require.NoError(t, err)
	assert.Equal(t, 100, recordB.XP)

	// B pushes the adopted copy back, stamped later than A's.
	snap, err := store.Fetch(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 100, snap.Stats.XP)
	assert.Greater(t, snap.UpdatedAt, pushed.UpdatedAt)
}

func TestSubmit_DebouncesBursts(t *testing.T) {
	svc, store, clock, progressRepo, _ := newSyncFixture(t)

	_, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)

	// A burst of mutations inside the window coalesces into one push.
	svc.Submit(1)
	clock.Advance(100 * time.Millisecond)
	svc.Submit(1)
	clock.Advance(100 * time.Millisecond)
	svc.Submit(1)

	assert.Equal(t, 0, store.pushCount(), "nothing flushes while mutations keep arriving")

	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, 1, store.pushCount())

	// A later mutation starts a fresh window.
	svc.Submit(1)
	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, 2, store.pushCount())
}

func TestSubmit_SeparateUsersSeparateTimers(t *testing.T) {
	svc, store, clock, progressRepo, _ := newSyncFixture(t)

	_, err := progressRepo.GetByUserID(1)
	require.NoError(t, err)
	_, err = progressRepo.GetByUserID(2)
	require.NoError(t, err)

	svc.Submit(1)
	svc.Submit(2)
	clock.Advance(400 * time.Millisecond)

	assert.Equal(t, 2, store.pushCount())
}
