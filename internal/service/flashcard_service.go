package service

import (
	"fmt"
	"time"

	"examly-backend/internal/model"
	"examly-backend/internal/repository"
	"examly-backend/utilities"
)

type FlashcardService interface {
	GetSet(userID uint) (*model.FlashcardSet, error)
	AddCard(userID uint, front, back, category string) (*model.Flashcard, error)
	// SetCardStatus moves a card between new/learning/mastered. Transitions
	// are user-driven and unordered: any status is reachable from any other.
	SetCardStatus(userID, cardID uint, status string) error
	GetCursor(userID uint) (*model.VocabCursor, error)
	SetCursor(userID uint, category string, index int) error
}

type flashcardService struct {
	cardRepo repository.FlashcardRepository
	planRepo repository.PlanRepository
	bus      *utilities.EventBus
	now      func() time.Time
}

func NewFlashcardService(cardRepo repository.FlashcardRepository, planRepo repository.PlanRepository, bus *utilities.EventBus) FlashcardService {
	return &flashcardService{
		cardRepo: cardRepo,
		planRepo: planRepo,
		bus:      bus,
		now:      time.Now,
	}
}

func (s *flashcardService) publish(event string, data interface{}) {
	if s.bus != nil {
		s.bus.Publish(event, data)
	}
}

func (s *flashcardService) GetSet(userID uint) (*model.FlashcardSet, error) {
	return s.cardRepo.GetSet(userID)
}

func (s *flashcardService) AddCard(userID uint, front, back, category string) (*model.Flashcard, error) {
	if front == "" || back == "" {
		return nil, fmt.Errorf("card front and back are required")
	}

	set, err := s.cardRepo.GetSet(userID)
	if err != nil {
		return nil, err
	}

	card := model.Flashcard{
		SetID:    set.ID,
		Front:    front,
		Back:     back,
		Category: category,
		Status:   model.CardStatusNew,
	}
	if err := s.cardRepo.AddCard(&card); err != nil {
		return nil, fmt.Errorf("failed to add card: %w", err)
	}
	if err := s.cardRepo.TouchSet(set.ID, s.now()); err != nil {
		utilities.Warn("failed to touch flashcard set: %v", err)
	}

	s.publish(utilities.EventFlashcardsChanged, set)
	s.publish(utilities.EventSyncRequested, userID)
	return &card, nil
}

func (s *flashcardService) SetCardStatus(userID, cardID uint, status string) error {
	switch status {
	case model.CardStatusNew, model.CardStatusLearning, model.CardStatusMastered:
	default:
		return fmt.Errorf("invalid card status %q", status)
	}

	set, err := s.cardRepo.GetSet(userID)
	if err != nil {
		return err
	}
	if err := s.cardRepo.UpdateCardStatus(set.ID, cardID, status); err != nil {
		return fmt.Errorf("failed to update card status: %w", err)
	}
	if err := s.cardRepo.TouchSet(set.ID, s.now()); err != nil {
		utilities.Warn("failed to touch flashcard set: %v", err)
	}

	s.publish(utilities.EventFlashcardsChanged, set)
	s.publish(utilities.EventSyncRequested, userID)
	return nil
}

func (s *flashcardService) GetCursor(userID uint) (*model.VocabCursor, error) {
	return s.planRepo.GetCursor(userID)
}

func (s *flashcardService) SetCursor(userID uint, category string, index int) error {
	cursor, err := s.planRepo.GetCursor(userID)
	if err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if cursor.Indices == nil {
		cursor.Indices = map[string]int{}
	}
	cursor.Indices[category] = index
	return s.planRepo.SaveCursor(cursor)
}
