package repository

import (
	"noted_backend/internal/model"

	"gorm.io/gorm"
)

type FlashcardRepository struct {
	DB *gorm.DB
}

func NewFlashcardRepository(db *gorm.DB) *FlashcardRepository {
	return &FlashcardRepository{DB: db}
}

// CreateBatch stores one generation's cards and their course links in a
// single transaction.
func (r *FlashcardRepository) CreateBatch(cards []model.Flashcard, courseIDs []uint) ([]model.Flashcard, error) {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range cards {
			if err := tx.Create(&cards[i]).Error; err != nil {
				return err
			}
			for _, courseID := range courseIDs {
				link := model.FlashcardCourse{FlashcardID: cards[i].ID, CourseID: courseID}
				if err := tx.Create(&link).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	return cards, err
}

func (r *FlashcardRepository) FindByID(id uint) (*model.Flashcard, error) {
	var card model.Flashcard
	err := r.DB.First(&card, id).Error
	return &card, err
}

func (r *FlashcardRepository) List(sessionID, courseID uint, cardType string, page, limit int) ([]model.Flashcard, int64, error) {
	var cards []model.Flashcard
	var total int64

	query := r.DB.Model(&model.Flashcard{})
	if sessionID > 0 {
		query = query.Where("session_id = ?", sessionID)
	}
	if cardType != "" {
		query = query.Where("type = ?", cardType)
	}
	if courseID > 0 {
		query = query.Joins("JOIN flashcard_courses ON flashcard_courses.flashcard_id = flashcards.id").
			Where("flashcard_courses.course_id = ?", courseID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("flashcards.id ASC").
		Offset(offset).Limit(limit).
		Find(&cards).Error

	return cards, total, err
}

// FindBySessionAndTypes lists a session's cards limited to the given types.
func (r *FlashcardRepository) FindBySessionAndTypes(sessionID uint, types []string) ([]model.Flashcard, error) {
	var cards []model.Flashcard
	err := r.DB.Where("session_id = ? AND type IN ?", sessionID, types).
		Order("id ASC").
		Find(&cards).Error
	return cards, err
}

func (r *FlashcardRepository) CourseIDs(flashcardID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.FlashcardCourse{}).
		Where("flashcard_id = ?", flashcardID).
		Pluck("course_id", &ids).Error
	return ids, err
}

func (r *FlashcardRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("flashcard_id = ?", id).Delete(&model.FlashcardCourse{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&model.Flashcard{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
