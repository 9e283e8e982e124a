package service

import (
	"context"
	"encoding/json"
	"errors"
	"noted_backend/internal/repository"
	"noted_backend/internal/util"

	"gorm.io/gorm"
)

// Summarizer produces prose artifacts from a transcript.
type Summarizer interface {
	GenerateSummary(ctx context.Context, transcript string) (*SummaryResult, error)
	Explain(ctx context.Context, concept, mode, transcript string) (string, error)
}

// StudyService generates study artifacts (summaries, explanations) for a
// session. Summaries are stored on the session record.
type StudyService struct {
	SessionRepo *repository.SessionRepository
	Summarizer  Summarizer
	Bus         *EventBus
}

func NewStudyService(sessionRepo *repository.SessionRepository, summarizer Summarizer, bus *EventBus) *StudyService {
	return &StudyService{SessionRepo: sessionRepo, Summarizer: summarizer, Bus: bus}
}

func (s *StudyService) Summarize(ctx context.Context, sessionID uint) (*SummaryResult, error) {
	transcript, err := s.transcript(sessionID)
	if err != nil {
		return nil, err
	}

	summary, err := s.Summarizer.GenerateSummary(ctx, transcript)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	if err := s.SessionRepo.SetSummary(sessionID, string(encoded)); err != nil {
		return nil, err
	}

	s.Bus.Publish(EventSummaryGenerated, &sessionID, "summary generated", map[string]interface{}{
		"bullets": len(summary.Bullets),
	})
	return summary, nil
}

func (s *StudyService) Explain(ctx context.Context, sessionID uint, concept, mode string) (string, error) {
	transcript, err := s.transcript(sessionID)
	if err != nil {
		return "", err
	}

	explanation, err := s.Summarizer.Explain(ctx, concept, mode, transcript)
	if err != nil {
		return "", err
	}

	s.Bus.Publish(EventExplanationGenerated, &sessionID, "explanation generated", map[string]interface{}{
		"concept": concept,
		"mode":    mode,
	})
	return explanation, nil
}

func (s *StudyService) transcript(sessionID uint) (string, error) {
	if _, err := s.SessionRepo.FindByID(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrSessionNotFound
		}
		return "", err
	}
	return s.SessionRepo.FullTranscript(sessionID)
}
