package model

const (
	SessionCourseSourceManual    = "manual"
	SessionCourseSourceSuggested = "suggested"
)

type Course struct {
	BaseModel
	Name    string   `gorm:"size:191;uniqueIndex;not null" json:"name"`
	Color   string   `gorm:"size:20" json:"color,omitempty"`
	Aliases []string `gorm:"serializer:json" json:"aliases"`
}

// SessionCourse links a session to at most one course.
type SessionCourse struct {
	BaseModel
	SessionID  uint    `gorm:"uniqueIndex;not null" json:"sessionId"`
	CourseID   uint    `gorm:"index;not null" json:"courseId"`
	Confidence float64 `json:"confidence"`
	Source     string  `gorm:"size:20;not null;default:manual" json:"source"`
}
