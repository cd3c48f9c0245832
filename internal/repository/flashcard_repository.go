package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"examly-backend/internal/db"
	"examly-backend/internal/model"
)

type FlashcardRepository interface {
	GetSet(userID uint) (*model.FlashcardSet, error)
	ReplaceSet(set *model.FlashcardSet) error
	AddCard(card *model.Flashcard) error
	UpdateCardStatus(setID, cardID uint, status string) error
	TouchSet(setID uint, at time.Time) error
}

type flashcardRepository struct{}

func NewFlashcardRepository() FlashcardRepository {
	return &flashcardRepository{}
}

func (r *flashcardRepository) GetSet(userID uint) (*model.FlashcardSet, error) {
	var set model.FlashcardSet
	err := db.GetDB().Preload("Cards").Where("user_id = ?", userID).First(&set).Error
	if err == nil {
		return &set, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	set = model.FlashcardSet{UserID: userID, Cards: []model.Flashcard{}}
	if err := db.GetDB().Create(&set).Error; err != nil {
		return nil, err
	}
	return &set, nil
}

// ReplaceSet swaps the whole collection, used when reconciliation adopts the
// remote copy wholesale.
func (r *flashcardRepository) ReplaceSet(set *model.FlashcardSet) error {
	return db.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("set_id = ?", set.ID).Delete(&model.Flashcard{}).Error; err != nil {
			return err
		}
		for i := range set.Cards {
			set.Cards[i].ID = 0
			set.Cards[i].SetID = set.ID
		}
		if len(set.Cards) > 0 {
			if err := tx.Create(&set.Cards).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.FlashcardSet{}).
			Where("id = ?", set.ID).
			Update("updated_at", set.UpdatedAt).Error
	})
}

func (r *flashcardRepository) AddCard(card *model.Flashcard) error {
	return db.GetDB().Create(card).Error
}

func (r *flashcardRepository) UpdateCardStatus(setID, cardID uint, status string) error {
	return db.GetDB().Model(&model.Flashcard{}).
		Where("set_id = ? AND id = ?", setID, cardID).
		Update("status", status).Error
}

func (r *flashcardRepository) TouchSet(setID uint, at time.Time) error {
	return db.GetDB().Model(&model.FlashcardSet{}).
		Where("id = ?", setID).
		Update("updated_at", at).Error
}
