package model

// QuizAttempt snapshots the sampled questions at start time. Score stays
// nil until the attempt is submitted.
type QuizAttempt struct {
	BaseModel
	SessionID    uint     `gorm:"index;not null" json:"sessionId"`
	Questions    string   `gorm:"type:text;not null" json:"-"`
	Answers      string   `gorm:"type:text" json:"-"`
	NumQuestions int      `json:"numQuestions"`
	NumCorrect   int      `json:"numCorrect"`
	Score        *float64 `json:"score,omitempty"`
}
