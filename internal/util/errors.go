package util

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionEnded          = errors.New("session already ended")
	ErrCourseNotFound        = errors.New("course not found")
	ErrFlashcardNotFound     = errors.New("flashcard not found")
	ErrProposalNotFound      = errors.New("proposal not found")
	ErrProposalNotPending    = errors.New("proposal is not pending")
	ErrProposalIncomplete    = errors.New("proposal is missing title, start time or duration")
	ErrCalendarEventNotFound = errors.New("calendar event not found")
	ErrInvalidSignature      = errors.New("invalid webhook signature")
	ErrNoFlashcards          = errors.New("session has no quizzable flashcards")
	ErrAttemptNotFound       = errors.New("quiz attempt not found")
	ErrAttemptSubmitted      = errors.New("quiz attempt already submitted")
)

// Provider fault codes carried by ProviderError.
const (
	ProviderCodeTimeout   = "llm_timeout"
	ProviderCodeTransport = "llm_transport"
	ProviderCodeBadFormat = "llm_bad_format"
)

// ProviderError describes a failure talking to the model provider.
type ProviderError struct {
	Code   string
	Detail string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}
