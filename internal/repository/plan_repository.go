package repository

import (
	"errors"

	"gorm.io/gorm"

	"examly-backend/internal/db"
	"examly-backend/internal/model"
)

// PlanRepository persists the small per-user documents around the core:
// daily plan, preferences and vocabulary deck cursors.
type PlanRepository interface {
	GetPlan(userID uint) (*model.DailyPlan, error)
	SavePlan(plan *model.DailyPlan) error
	GetPreferences(userID uint) (*model.Preferences, error)
	SavePreferences(prefs *model.Preferences) error
	GetCursor(userID uint) (*model.VocabCursor, error)
	SaveCursor(cursor *model.VocabCursor) error
}

type planRepository struct{}

func NewPlanRepository() PlanRepository {
	return &planRepository{}
}

func (r *planRepository) GetPlan(userID uint) (*model.DailyPlan, error) {
	var plan model.DailyPlan
	err := db.GetDB().Where("user_id = ?", userID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		plan = model.DailyPlan{UserID: userID, Slots: map[string]bool{}}
		if err := db.GetDB().Create(&plan).Error; err != nil {
			return nil, err
		}
		return &plan, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) SavePlan(plan *model.DailyPlan) error {
	return db.GetDB().Save(plan).Error
}

func (r *planRepository) GetPreferences(userID uint) (*model.Preferences, error) {
	var prefs model.Preferences
	err := db.GetDB().Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prefs = model.Preferences{UserID: userID, SoundEnabled: true, RemindersEnabled: true}
		if err := db.GetDB().Create(&prefs).Error; err != nil {
			return nil, err
		}
		return &prefs, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (r *planRepository) SavePreferences(prefs *model.Preferences) error {
	return db.GetDB().Save(prefs).Error
}

func (r *planRepository) GetCursor(userID uint) (*model.VocabCursor, error) {
	var cursor model.VocabCursor
	err := db.GetDB().Where("user_id = ?", userID).First(&cursor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cursor = model.VocabCursor{UserID: userID, Indices: map[string]int{}}
		if err := db.GetDB().Create(&cursor).Error; err != nil {
			return nil, err
		}
		return &cursor, nil
	}
	if err != nil {
		return nil, err
	}
	return &cursor, nil
}

func (r *planRepository) SaveCursor(cursor *model.VocabCursor) error {
	return db.GetDB().Save(cursor).Error
}
