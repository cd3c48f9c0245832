package service

import (
	"fmt"

	"examly-backend/internal/model"
	"examly-backend/internal/repository"
	"examly-backend/utilities"
)

// UnlockNotification is the payload published on achievement_unlocked.
type UnlockNotification struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

type AchievementService interface {
	// Evaluate runs every catalog predicate against the normalized record
	// and unlocks the ones that pass. Unlocks are strictly monotonic: an id
	// once present is never removed, even if its predicate later turns
	// false. Safe to call on every normalization pass.
	Evaluate(record *model.ProgressRecord, cards *model.FlashcardSet) error
	Catalog() []model.AchievementDef
}

type achievementService struct {
	progressRepo repository.ProgressRepository
	catalog      []model.AchievementDef
	bus          *utilities.EventBus
}

func NewAchievementService(progressRepo repository.ProgressRepository, bus *utilities.EventBus) AchievementService {
	return &achievementService{
		progressRepo: progressRepo,
		catalog:      model.AchievementCatalog(),
		bus:          bus,
	}
}

func (s *achievementService) Catalog() []model.AchievementDef {
	return s.catalog
}

func (s *achievementService) Evaluate(record *model.ProgressRecord, cards *model.FlashcardSet) error {
	var unlocked []UnlockNotification
	for _, def := range s.catalog {
		if record.HasAchievement(def.ID) {
			continue
		}
		if def.Predicate(record, cards) {
			record.Achievements = append(record.Achievements, def.ID)
			unlocked = append(unlocked, UnlockNotification{ID: def.ID, Title: def.Title, Icon: def.Icon})
		}
	}

	if len(unlocked) == 0 {
		return nil
	}

	if err := s.progressRepo.Save(record); err != nil {
		return fmt.Errorf("failed to persist unlocked achievements: %w", err)
	}
	for _, n := range unlocked {
		utilities.Info("achievement unlocked: %s", n.ID)
		if s.bus != nil {
			s.bus.Publish(utilities.EventAchievementUnlocked, n)
		}
	}
	return nil
}
