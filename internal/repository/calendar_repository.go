package repository

import (
	"noted_backend/internal/model"

	"gorm.io/gorm"
)

type CalendarRepository struct {
	DB *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{DB: db}
}

func (r *CalendarRepository) Create(event *model.CalendarEvent) error {
	return r.DB.Create(event).Error
}

// CreateFromProposal stores the event and the proposal's status flip in one
// transaction, so a confirm either fully lands or leaves the proposal
// pending with no event.
func (r *CalendarRepository) CreateFromProposal(event *model.CalendarEvent, proposal *model.ProposedCalendarItem) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		return tx.Save(proposal).Error
	})
}

func (r *CalendarRepository) FindByID(id uint) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	err := r.DB.First(&event, id).Error
	return &event, err
}

func (r *CalendarRepository) List() ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	err := r.DB.Order("starts_at ASC").Find(&events).Error
	return events, err
}

func (r *CalendarRepository) Delete(id uint) error {
	result := r.DB.Delete(&model.CalendarEvent{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
