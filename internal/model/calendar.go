package model

import "time"

const (
	ProposalStatusPending  = "pending"
	ProposalStatusAccepted = "accepted"
	ProposalStatusRejected = "rejected"
)

const (
	ItemKindMeeting  = "meeting"
	ItemKindHomework = "homework"
)

const (
	ProposerICS       = "ics"
	ProposerLLM       = "llm"
	ProposerHeuristic = "heuristic"
)

// CalendarEvent is a confirmed entry served on the ICS feed.
type CalendarEvent struct {
	BaseModel
	Title           string    `gorm:"size:255;not null" json:"title"`
	Kind            string    `gorm:"size:20;not null;default:meeting" json:"kind"`
	StartsAt        time.Time `gorm:"not null" json:"startsAt"`
	DurationMinutes int       `gorm:"not null" json:"durationMinutes"`
	Location        string    `gorm:"size:255" json:"location,omitempty"`
	Notes           string    `gorm:"type:text" json:"notes,omitempty"`
	Source          string    `gorm:"size:50" json:"source,omitempty"`
	ProposalID      *uint     `gorm:"index" json:"proposalId,omitempty"`
}

// ProposedCalendarItem is a candidate event extracted from an inbound email.
// It stays pending until a user confirms or rejects it.
type ProposedCalendarItem struct {
	BaseModel
	MessageID       string     `gorm:"size:191;uniqueIndex" json:"messageId"`
	Source          string     `gorm:"size:20;not null;default:email" json:"source"`
	Proposer        string     `gorm:"size:20" json:"proposer"`
	Kind            string     `gorm:"size:20;not null;default:meeting" json:"kind"`
	Title           string     `gorm:"size:255" json:"title"`
	StartsAt        *time.Time `json:"startsAt,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Location        string     `gorm:"size:255" json:"location,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes,omitempty"`
	ProfessorEmail  string     `gorm:"size:255" json:"professorEmail,omitempty"`
	Confidence      float64    `json:"confidence"`
	Raw             string     `gorm:"type:text" json:"-"`
	Status          string     `gorm:"size:20;not null;default:pending;index" json:"status"`
	CourseID        *uint      `gorm:"index" json:"courseId,omitempty"`
}
