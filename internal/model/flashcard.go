package model

const (
	FlashcardTypeQA    = "qa"
	FlashcardTypeCloze = "cloze"
	FlashcardTypeMC    = "mc"
)

// Flashcard is one generated study card. For qa and cloze cards Answer is
// plain text; for mc cards it is a JSON-encoded MCAnswer.
type Flashcard struct {
	BaseModel
	SessionID *uint    `gorm:"index" json:"sessionId,omitempty"`
	Type      string   `gorm:"size:10;not null;default:qa" json:"type"`
	Question  string   `gorm:"type:text;not null" json:"question"`
	Answer    string   `gorm:"type:text;not null" json:"answer"`
	SourceTs  *float64 `json:"sourceTs,omitempty"`
}

// MCAnswer is the answer payload of a multiple-choice card: the correct
// option plus three distractors, four choices total.
type MCAnswer struct {
	Correct string   `json:"correct"`
	Choices []string `json:"choices"`
}

// FlashcardCourse links a generated card to the courses associated with its
// session at generation time.
type FlashcardCourse struct {
	FlashcardID uint `gorm:"primaryKey;autoIncrement:false" json:"flashcardId"`
	CourseID    uint `gorm:"primaryKey;autoIncrement:false" json:"courseId"`
}
