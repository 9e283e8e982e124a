package service

import (
	"errors"
	"fmt"
	"noted_backend/internal/model"
	"noted_backend/internal/repository"
	"noted_backend/internal/util"
	"time"

	ics "github.com/arran4/golang-ical"
	"gorm.io/gorm"
)

type CalendarService struct {
	CalendarRepo *repository.CalendarRepository
	ProposalRepo *repository.ProposalRepository
	Bus          *EventBus
}

func NewCalendarService(calendarRepo *repository.CalendarRepository, proposalRepo *repository.ProposalRepository, bus *EventBus) *CalendarService {
	return &CalendarService{
		CalendarRepo: calendarRepo,
		ProposalRepo: proposalRepo,
		Bus:          bus,
	}
}

func (s *CalendarService) Proposals(status string) ([]model.ProposedCalendarItem, error) {
	if status == "" {
		status = model.ProposalStatusPending
	}
	return s.ProposalRepo.List(status)
}

// Confirm turns a pending proposal into a calendar event. A proposal that
// is gone or already decided reads as not found.
func (s *CalendarService) Confirm(proposalID uint) (*model.CalendarEvent, error) {
	proposal, err := s.ProposalRepo.FindByID(proposalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProposalNotFound
	}
	if err != nil {
		return nil, err
	}
	if proposal.Status != model.ProposalStatusPending {
		return nil, util.ErrProposalNotFound
	}

	event, err := eventFromProposal(proposal)
	if err != nil {
		return nil, err
	}

	// event insert and status flip commit together; a failed confirm
	// leaves the proposal pending
	proposal.Status = model.ProposalStatusAccepted
	if err := s.CalendarRepo.CreateFromProposal(event, proposal); err != nil {
		return nil, err
	}

	s.Bus.Publish(EventProposalConfirmed, nil, "calendar proposal confirmed", map[string]interface{}{
		"proposal_id": proposal.ID,
		"event_id":    event.ID,
		"title":       proposal.Title,
	})
	return event, nil
}

// eventFromProposal validates the proposal carries everything a concrete
// event needs and builds it. Proposals missing a title, start, or duration
// stay pending until edited.
func eventFromProposal(proposal *model.ProposedCalendarItem) (*model.CalendarEvent, error) {
	if proposal.Title == "" || proposal.StartsAt == nil || proposal.DurationMinutes == nil || *proposal.DurationMinutes == 0 {
		return nil, util.ErrProposalIncomplete
	}
	return &model.CalendarEvent{
		Title:           proposal.Title,
		Kind:            proposal.Kind,
		StartsAt:        *proposal.StartsAt,
		DurationMinutes: *proposal.DurationMinutes,
		Location:        proposal.Location,
		Notes:           proposal.Notes,
		Source:          "agentmail",
		ProposalID:      &proposal.ID,
	}, nil
}

func (s *CalendarService) Reject(proposalID uint) error {
	proposal, err := s.ProposalRepo.FindByID(proposalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrProposalNotFound
	}
	if err != nil {
		return err
	}
	if proposal.Status != model.ProposalStatusPending {
		return util.ErrProposalNotFound
	}

	proposal.Status = model.ProposalStatusRejected
	if err := s.ProposalRepo.Update(proposal); err != nil {
		return err
	}

	s.Bus.Publish(EventProposalRejected, nil, "calendar proposal rejected", map[string]interface{}{
		"proposal_id": proposal.ID,
		"title":       proposal.Title,
	})
	return nil
}

func (s *CalendarService) Events() ([]model.CalendarEvent, error) {
	return s.CalendarRepo.List()
}

func (s *CalendarService) DeleteEvent(id uint) error {
	err := s.CalendarRepo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrCalendarEventNotFound
	}
	return err
}

// FeedICS renders all confirmed events as an iCalendar document.
func (s *CalendarService) FeedICS() (string, error) {
	events, err := s.CalendarRepo.List()
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//noted//calendar//EN")

	for _, e := range events {
		ev := cal.AddEvent(fmt.Sprintf("noted-%d@noted", e.ID))
		ev.SetCreatedTime(e.CreatedAt)
		ev.SetDtStampTime(e.CreatedAt)
		ev.SetStartAt(e.StartsAt)
		ev.SetEndAt(e.StartsAt.Add(time.Duration(e.DurationMinutes) * time.Minute))
		ev.SetSummary(e.Title)
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
		if e.Notes != "" {
			ev.SetDescription(e.Notes)
		}
	}

	return cal.Serialize(), nil
}
