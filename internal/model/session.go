package model

import "time"

const (
	SessionStatusActive = "active"
	SessionStatusEnded  = "ended"
)

// Session is one lecture capture. Transcript chunks accumulate against it
// until it is ended.
type Session struct {
	BaseModel
	Title     string     `gorm:"size:255;not null" json:"title"`
	Status    string     `gorm:"size:20;not null;default:active" json:"status"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Summary   string     `gorm:"type:text" json:"summary,omitempty"`

	Chunks []TranscriptChunk `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

const (
	ChunkSourceWebhook = "webhook"
	ChunkSourceLive    = "live"
	ChunkSourceVision  = "vision"
)

// TranscriptChunk is one fragment of a session transcript. Timestamps are
// seconds from session start; listings order by TsStart.
type TranscriptChunk struct {
	BaseModel
	SessionID  uint    `gorm:"index;not null" json:"sessionId"`
	Text       string  `gorm:"type:text" json:"text"`
	TsStart    float64 `gorm:"index" json:"tsStart"`
	TsEnd      float64 `json:"tsEnd"`
	Bookmarked bool    `json:"bookmarked"`
	Source     string  `gorm:"size:20;not null;default:webhook" json:"source"`
}
