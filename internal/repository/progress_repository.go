package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"examly-backend/internal/db"
	"examly-backend/internal/model"
)

type ProgressRepository interface {
	GetByUserID(userID uint) (*model.ProgressRecord, error)
	Save(record *model.ProgressRecord) error
	AddTaskResult(result *model.TaskResult) error
	AddMistake(mistake *model.Mistake) error
	DeleteMistake(recordID, mistakeID uint) error
	UpsertActivity(entry *model.ActivityEntry) error
	ClearActivity(recordID uint) error
	ReplaceRecord(record *model.ProgressRecord) error
	Reset(userID uint) error
}

type progressRepository struct{}

func NewProgressRepository() ProgressRepository {
	return &progressRepository{}
}

// GetByUserID loads the full record with all collections. A missing or
// unreadable record is replaced with zero defaults rather than surfaced:
// corruption never propagates to callers.
func (r *progressRepository) GetByUserID(userID uint) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := db.GetDB().
		Preload("History", func(tx *gorm.DB) *gorm.DB { return tx.Order("completed_at asc") }).
		Preload("Mistakes").
		Preload("Activity").
		Where("user_id = ?", userID).
		First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record = defaultRecord(userID)
	if err := db.GetDB().Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// defaultRecord builds the all-zero starting record. UpdatedAt stays zero so
// a brand-new device never outranks an existing remote snapshot.
func defaultRecord(userID uint) model.ProgressRecord {
	progress := make(map[string]int, len(model.Modules()))
	for _, m := range model.Modules() {
		progress[m] = 0
	}
	return model.ProgressRecord{
		UserID:         userID,
		ModuleProgress: progress,
		Achievements:   []string{},
	}
}

// Save persists the record's scalar fields. Collections are written through
// their own methods so history stays append-only. UpdatedAt is written as
// given; the silent normalize path passes the loaded value through unchanged
// so a derived-only recompute never advances the reconciliation stamp.
func (r *progressRepository) Save(record *model.ProgressRecord) error {
	return db.GetDB().Model(record).
		Select("display_name", "xp", "level", "streak", "completed_tasks",
			"last_activity_at", "module_progress", "achievements", "updated_at").
		Updates(record).Error
}

func (r *progressRepository) AddTaskResult(result *model.TaskResult) error {
	return db.GetDB().Create(result).Error
}

func (r *progressRepository) AddMistake(mistake *model.Mistake) error {
	return db.GetDB().Create(mistake).Error
}

func (r *progressRepository) DeleteMistake(recordID, mistakeID uint) error {
	return db.GetDB().
		Where("record_id = ? AND id = ?", recordID, mistakeID).
		Delete(&model.Mistake{}).Error
}

// UpsertActivity writes the day's entry, keeping the maximum intensity if a
// row for that day already exists.
func (r *progressRepository) UpsertActivity(entry *model.ActivityEntry) error {
	var existing model.ActivityEntry
	err := db.GetDB().
		Where("record_id = ? AND day = ?", entry.RecordID, entry.Day).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.GetDB().Create(entry).Error
	}
	if err != nil {
		return err
	}
	if entry.Intensity > existing.Intensity {
		return db.GetDB().Model(&existing).Update("intensity", entry.Intensity).Error
	}
	return nil
}

// ClearActivity drops the whole activity log for a record. Used by the
// legacy seed correction.
func (r *progressRepository) ClearActivity(recordID uint) error {
	return db.GetDB().Where("record_id = ?", recordID).Delete(&model.ActivityEntry{}).Error
}

// ReplaceRecord overwrites the stored record wholesale, collections
// included. Reconciliation uses this when the remote copy wins.
func (r *progressRepository) ReplaceRecord(record *model.ProgressRecord) error {
	return db.GetDB().Transaction(func(tx *gorm.DB) error {
		var existing model.ProgressRecord
		if err := tx.Where("user_id = ?", record.UserID).First(&existing).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return tx.Create(record).Error
		}

		for _, child := range []interface{}{
			&model.TaskResult{}, &model.Mistake{}, &model.ActivityEntry{},
		} {
			if err := tx.Where("record_id = ?", existing.ID).Delete(child).Error; err != nil {
				return err
			}
		}

		record.ID = existing.ID
		for i := range record.History {
			record.History[i].ID = 0
			record.History[i].RecordID = existing.ID
		}
		for i := range record.Mistakes {
			record.Mistakes[i].ID = 0
			record.Mistakes[i].RecordID = existing.ID
		}
		for i := range record.Activity {
			record.Activity[i].ID = 0
			record.Activity[i].RecordID = existing.ID
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(record).Error
	})
}

// Reset clears all raw and derived state back to zero defaults.
func (r *progressRepository) Reset(userID uint) error {
	return db.GetDB().Transaction(func(tx *gorm.DB) error {
		var record model.ProgressRecord
		if err := tx.Where("user_id = ?", userID).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		for _, child := range []interface{}{
			&model.TaskResult{}, &model.Mistake{}, &model.ActivityEntry{},
		} {
			if err := tx.Where("record_id = ?", record.ID).Delete(child).Error; err != nil {
				return err
			}
		}

		fresh := defaultRecord(userID)
		fresh.ID = record.ID
		fresh.DisplayName = record.DisplayName
		// A reset is an external mutation, so it does advance the stamp.
		fresh.UpdatedAt = time.Now()
		return tx.Save(&fresh).Error
	})
}
