package service

import (
	"time"

	"examly-backend/internal/model"
	"examly-backend/internal/repository"
)

// Default daily-plan slots.
var defaultPlanSlots = []string{"vocabulary", "grammar", "listening", "review"}

type PlanService interface {
	// GetPlan returns today's plan, resetting the checklist when the stored
	// date has rolled over.
	GetPlan(userID uint) (*model.DailyPlan, error)
	SetSlot(userID uint, slot string, done bool) (*model.DailyPlan, error)
	GetPreferences(userID uint) (*model.Preferences, error)
	UpdatePreferences(userID uint, sound, reminders bool) (*model.Preferences, error)
	// ShouldShowReminder reports whether the daily reminder is due and, when
	// it is, records today as shown so it fires at most once per day.
	ShouldShowReminder(userID uint) (bool, error)
}

type planService struct {
	planRepo repository.PlanRepository
	now      func() time.Time
}

func NewPlanService(planRepo repository.PlanRepository) PlanService {
	return &planService{planRepo: planRepo, now: time.Now}
}

func (s *planService) GetPlan(userID uint) (*model.DailyPlan, error) {
	plan, err := s.planRepo.GetPlan(userID)
	if err != nil {
		return nil, err
	}

	today := model.DayKey(s.now())
	if plan.Date != today {
		plan.Date = today
		plan.Slots = make(map[string]bool, len(defaultPlanSlots))
		for _, slot := range defaultPlanSlots {
			plan.Slots[slot] = false
		}
		if err := s.planRepo.SavePlan(plan); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

func (s *planService) SetSlot(userID uint, slot string, done bool) (*model.DailyPlan, error) {
	plan, err := s.GetPlan(userID)
	if err != nil {
		return nil, err
	}
	plan.Slots[slot] = done
	if err := s.planRepo.SavePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) GetPreferences(userID uint) (*model.Preferences, error) {
	return s.planRepo.GetPreferences(userID)
}

func (s *planService) UpdatePreferences(userID uint, sound, reminders bool) (*model.Preferences, error) {
	prefs, err := s.planRepo.GetPreferences(userID)
	if err != nil {
		return nil, err
	}
	prefs.SoundEnabled = sound
	prefs.RemindersEnabled = reminders
	if err := s.planRepo.SavePreferences(prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (s *planService) ShouldShowReminder(userID uint) (bool, error) {
	prefs, err := s.planRepo.GetPreferences(userID)
	if err != nil {
		return false, err
	}
	if !prefs.RemindersEnabled {
		return false, nil
	}

	today := model.DayKey(s.now())
	if prefs.LastReminderShownDate == today {
		return false, nil
	}

	prefs.LastReminderShownDate = today
	if err := s.planRepo.SavePreferences(prefs); err != nil {
		return false, err
	}
	return true, nil
}
