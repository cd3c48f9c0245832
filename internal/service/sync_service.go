package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"examly-backend/internal/model"
	"examly-backend/internal/remote"
	"examly-backend/internal/repository"
	"examly-backend/utilities"
)

// Clock abstracts time so the debounce window is testable without real
// wall-clock delays.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewRealClock returns the wall-clock implementation.
func NewRealClock() Clock { return realClock{} }

// MergeOutcome reports what reconciliation decided.
type MergeOutcome struct {
	AdoptedRemoteStats bool                  `json:"adopted_remote_stats"`
	AdoptedRemoteCards bool                  `json:"adopted_remote_cards"`
	Pushed             *model.RemoteSnapshot `json:"-"`
}

type SyncService interface {
	// SyncNow reconciles the local store with the remote snapshot:
	// last-write-wins per side (stats and flashcards independently, whole
	// values, never field-level), then pushes the winners back with a fresh,
	// strictly advancing timestamp so both sides converge.
	SyncNow(ctx context.Context, userID uint) (*MergeOutcome, error)
	// Submit schedules a debounced push; bursts of mutations coalesce into
	// one remote write on the trailing edge.
	Submit(userID uint)
	// Start wires Submit to the sync_requested event topic.
	Start()
}

type syncService struct {
	progressRepo repository.ProgressRepository
	cardRepo     repository.FlashcardRepository
	store        remote.SnapshotStore
	bus          *utilities.EventBus
	clock        Clock
	window       time.Duration

	mu     sync.Mutex
	timers map[uint]Timer
}

func NewSyncService(
	progressRepo repository.ProgressRepository,
	cardRepo repository.FlashcardRepository,
	store remote.SnapshotStore,
	bus *utilities.EventBus,
	clock Clock,
	window time.Duration,
) SyncService {
	if clock == nil {
		clock = realClock{}
	}
	if window <= 0 {
		window = 400 * time.Millisecond
	}
	return &syncService{
		progressRepo: progressRepo,
		cardRepo:     cardRepo,
		store:        store,
		bus:          bus,
		clock:        clock,
		window:       window,
		timers:       make(map[uint]Timer),
	}
}

func (s *syncService) Start() {
	if s.bus == nil {
		return
	}
	s.bus.Subscribe(utilities.EventSyncRequested, func(data interface{}) {
		userID, ok := data.(uint)
		if !ok {
			return
		}
		s.Submit(userID)
	})
}

// Submit resets the user's debounce timer; the flush fires on the trailing
// edge once mutations stop for a full window.
func (s *syncService) Submit(userID uint) {
	if s.store == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[userID]; ok {
		timer.Reset(s.window)
		return
	}
	s.timers[userID] = s.clock.AfterFunc(s.window, func() {
		s.mu.Lock()
		delete(s.timers, userID)
		s.mu.Unlock()

		// Best effort: a failed push is swallowed and superseded by the
		// next debounced attempt.
		if _, err := s.SyncNow(context.Background(), userID); err != nil {
			utilities.Warn("debounced sync for user %d failed: %v", userID, err)
		}
	})
}

func (s *syncService) SyncNow(ctx context.Context, userID uint) (*MergeOutcome, error) {
	if s.store == nil {
		return nil, errors.New("sync is not configured")
	}

	record, err := s.progressRepo.GetByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	cards, err := s.cardRepo.GetSet(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flashcards: %w", err)
	}

	userKey := strconv.FormatUint(uint64(userID), 10)
	outcome := &MergeOutcome{}

	remoteSnapshot, err := s.store.Fetch(ctx, userKey)
	if err != nil && !errors.Is(err, remote.ErrNoSnapshot) {
		return nil, fmt.Errorf("failed to fetch remote snapshot: %w", err)
	}

	if remoteSnapshot != nil {
		// Stats and flashcards resolve independently: the side with the
		// strictly newer timestamp wins wholesale.
		if remoteSnapshot.Stats != nil && remoteSnapshot.Stats.UpdatedAt.After(record.UpdatedAt) {
			adopted := *remoteSnapshot.Stats
			adopted.UserID = userID
			if err := s.progressRepo.ReplaceRecord(&adopted); err != nil {
				return nil, fmt.Errorf("failed to adopt remote stats: %w", err)
			}
			record = &adopted
			outcome.AdoptedRemoteStats = true
			if s.bus != nil {
				s.bus.Publish(utilities.EventStatsChanged, record)
			}
		}
		if remoteSnapshot.Flashcards != nil && remoteSnapshot.Flashcards.UpdatedAt.After(cards.UpdatedAt) {
			adopted := *remoteSnapshot.Flashcards
			adopted.ID = cards.ID
			adopted.UserID = userID
			if err := s.cardRepo.ReplaceSet(&adopted); err != nil {
				return nil, fmt.Errorf("failed to adopt remote flashcards: %w", err)
			}
			cards = &adopted
			outcome.AdoptedRemoteCards = true
			if s.bus != nil {
				s.bus.Publish(utilities.EventFlashcardsChanged, cards)
			}
		}
	}

	// Push the winners back with a fresh timestamp that strictly advances
	// past whatever the remote held.
	stamp := s.clock.Now()
	if remoteSnapshot != nil {
		floor := time.UnixMilli(remoteSnapshot.UpdatedAt)
		if !stamp.After(floor) {
			stamp = floor.Add(time.Millisecond)
		}
	}

	record.UpdatedAt = stamp
	cards.UpdatedAt = stamp
	push := &model.RemoteSnapshot{
		Stats:      record,
		Flashcards: cards,
		UpdatedAt:  stamp.UnixMilli(),
	}
	if err := s.store.Push(ctx, userKey, push); err != nil {
		return nil, fmt.Errorf("failed to push snapshot: %w", err)
	}

	// Persist the advanced timestamps locally so both sides agree.
	if err := s.progressRepo.Save(record); err != nil {
		utilities.Warn("failed to persist sync timestamp: %v", err)
	}
	if err := s.cardRepo.TouchSet(cards.ID, stamp); err != nil {
		utilities.Warn("failed to persist flashcard sync timestamp: %v", err)
	}

	outcome.Pushed = push
	return outcome, nil
}
