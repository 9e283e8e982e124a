package service

import (
	"testing"
	"time"

	"noted_backend/internal/model"
	"noted_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingProposal() *model.ProposedCalendarItem {
	starts := time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)
	duration := 60
	p := &model.ProposedCalendarItem{
		MessageID:       "<midterm@example.edu>",
		Source:          "email",
		Proposer:        model.ProposerICS,
		Kind:            model.ItemKindMeeting,
		Title:           "Midterm review",
		StartsAt:        &starts,
		DurationMinutes: &duration,
		Location:        "Room 204",
		Status:          model.ProposalStatusPending,
	}
	p.ID = 42
	return p
}

func TestEventFromProposal(t *testing.T) {
	proposal := pendingProposal()

	event, err := eventFromProposal(proposal)
	require.NoError(t, err)
	assert.Equal(t, "Midterm review", event.Title)
	assert.Equal(t, model.ItemKindMeeting, event.Kind)
	assert.Equal(t, *proposal.StartsAt, event.StartsAt)
	assert.Equal(t, 60, event.DurationMinutes)
	assert.Equal(t, "Room 204", event.Location)
	assert.Equal(t, "agentmail", event.Source)
	require.NotNil(t, event.ProposalID)
	assert.Equal(t, uint(42), *event.ProposalID)
}

func TestEventFromProposalIncomplete(t *testing.T) {
	zero := 0

	cases := []struct {
		name   string
		mutate func(*model.ProposedCalendarItem)
	}{
		{"missing title", func(p *model.ProposedCalendarItem) { p.Title = "" }},
		{"missing start", func(p *model.ProposedCalendarItem) { p.StartsAt = nil }},
		{"missing duration", func(p *model.ProposedCalendarItem) { p.DurationMinutes = nil }},
		{"zero duration", func(p *model.ProposedCalendarItem) { p.DurationMinutes = &zero }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			proposal := pendingProposal()
			tc.mutate(proposal)

			event, err := eventFromProposal(proposal)
			assert.Nil(t, event)
			assert.ErrorIs(t, err, util.ErrProposalIncomplete)
		})
	}
}
