package repository

import (
	"context"
	"noted_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const messageIDTTL = 7 * 24 * time.Hour

type ProposalRepository struct {
	DB *gorm.DB
	// RDB is an optional dedup fast-path. The unique index on message_id
	// remains the source of truth when it is nil or unavailable.
	RDB *redis.Client
}

func NewProposalRepository(db *gorm.DB, rdb *redis.Client) *ProposalRepository {
	return &ProposalRepository{DB: db, RDB: rdb}
}

func (r *ProposalRepository) Create(item *model.ProposedCalendarItem) error {
	return r.DB.Create(item).Error
}

func (r *ProposalRepository) FindByID(id uint) (*model.ProposedCalendarItem, error) {
	var item model.ProposedCalendarItem
	err := r.DB.First(&item, id).Error
	return &item, err
}

func (r *ProposalRepository) FindByMessageID(messageID string) (*model.ProposedCalendarItem, error) {
	var item model.ProposedCalendarItem
	err := r.DB.Where("message_id = ?", messageID).First(&item).Error
	return &item, err
}

// SeenMessage reports whether an inbound message id was already processed.
// The redis lookup is read-only; the id is only claimed by MarkMessageSeen
// once the proposal row exists, so a failed insert never blocks a retry.
func (r *ProposalRepository) SeenMessage(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}

	if r.RDB != nil {
		n, err := r.RDB.Exists(ctx, "email:msgid:"+messageID).Result()
		if err == nil && n > 0 {
			return true, nil
		}
	}

	var count int64
	err := r.DB.Model(&model.ProposedCalendarItem{}).
		Where("message_id = ?", messageID).
		Count(&count).Error
	return count > 0, err
}

// MarkMessageSeen records a processed message id in redis. Best effort: the
// unique index on message_id still catches duplicates if redis is down.
func (r *ProposalRepository) MarkMessageSeen(ctx context.Context, messageID string) {
	if r.RDB == nil || messageID == "" {
		return
	}
	r.RDB.Set(ctx, "email:msgid:"+messageID, 1, messageIDTTL)
}

func (r *ProposalRepository) List(status string) ([]model.ProposedCalendarItem, error) {
	var items []model.ProposedCalendarItem
	query := r.DB.Model(&model.ProposedCalendarItem{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("id DESC").Find(&items).Error
	return items, err
}

func (r *ProposalRepository) Update(item *model.ProposedCalendarItem) error {
	return r.DB.Save(item).Error
}
