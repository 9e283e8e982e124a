package repository

import (
	"noted_backend/internal/model"
	"strings"
	"time"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	return r.DB.Create(session).Error
}

func (r *SessionRepository) FindByID(id uint) (*model.Session, error) {
	var session model.Session
	err := r.DB.First(&session, id).Error
	return &session, err
}

func (r *SessionRepository) List(page, limit int) ([]model.Session, int64, error) {
	var sessions []model.Session
	var total int64

	query := r.DB.Model(&model.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("started_at DESC").
		Offset(offset).Limit(limit).
		Find(&sessions).Error

	return sessions, total, err
}

func (r *SessionRepository) Update(session *model.Session) error {
	return r.DB.Save(session).Error
}

func (r *SessionRepository) End(id uint, endedAt time.Time) error {
	return r.DB.Model(&model.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": model.SessionStatusEnded, "ended_at": endedAt}).
		Error
}

func (r *SessionRepository) SetSummary(id uint, summary string) error {
	return r.DB.Model(&model.Session{}).
		Where("id = ?", id).
		Update("summary", summary).
		Error
}

// Delete removes a session and everything it owns.
func (r *SessionRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.TranscriptChunk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&model.Asset{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&model.SessionCourse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&model.QuizAttempt{}).Error; err != nil {
			return err
		}

		var cardIDs []uint
		if err := tx.Model(&model.Flashcard{}).Where("session_id = ?", id).Pluck("id", &cardIDs).Error; err != nil {
			return err
		}
		if len(cardIDs) > 0 {
			if err := tx.Where("flashcard_id IN ?", cardIDs).Delete(&model.FlashcardCourse{}).Error; err != nil {
				return err
			}
			if err := tx.Where("session_id = ?", id).Delete(&model.Flashcard{}).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&model.Session{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *SessionRepository) AddChunk(chunk *model.TranscriptChunk) error {
	return r.DB.Create(chunk).Error
}

func (r *SessionRepository) AddChunks(chunks []model.TranscriptChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.DB.Create(&chunks).Error
}

func (r *SessionRepository) FindChunks(sessionID uint) ([]model.TranscriptChunk, error) {
	var chunks []model.TranscriptChunk
	err := r.DB.Where("session_id = ?", sessionID).
		Order("ts_start ASC, id ASC").
		Find(&chunks).Error
	return chunks, err
}

// TimelineChunks lists a session's chunks ordered by start timestamp with
// optional substring and bookmark filters.
func (r *SessionRepository) TimelineChunks(sessionID uint, q string, bookmarked *bool) ([]model.TranscriptChunk, error) {
	query := r.DB.Where("session_id = ?", sessionID)
	if q != "" {
		query = query.Where("text LIKE ?", "%"+q+"%")
	}
	if bookmarked != nil {
		query = query.Where("bookmarked = ?", *bookmarked)
	}

	var chunks []model.TranscriptChunk
	err := query.Order("ts_start ASC, id ASC").Find(&chunks).Error
	return chunks, err
}

// BookmarkRange marks every chunk overlapping [tsStart, tsEnd].
func (r *SessionRepository) BookmarkRange(sessionID uint, tsStart, tsEnd float64) (int64, error) {
	result := r.DB.Model(&model.TranscriptChunk{}).
		Where("session_id = ? AND ts_start <= ? AND ts_end >= ?", sessionID, tsEnd, tsStart).
		Update("bookmarked", true)
	return result.RowsAffected, result.Error
}

// FullTranscript joins a session's chunks into one text block in timestamp order.
func (r *SessionRepository) FullTranscript(sessionID uint) (string, error) {
	chunks, err := r.FindChunks(sessionID)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		if ch.Text != "" {
			parts = append(parts, ch.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
