package service

import (
	"context"
	"encoding/json"
	"errors"
	"noted_backend/internal/model"
	"noted_backend/internal/repository"
	"noted_backend/internal/util"
	"strings"

	"gorm.io/gorm"
)

// CardGenerator produces typed flashcard drafts from a transcript.
type CardGenerator interface {
	GenerateFlashcards(ctx context.Context, transcript string, types []string, maxPerType int) (*FlashcardSet, error)
}

type FlashcardService struct {
	FlashcardRepo *repository.FlashcardRepository
	SessionRepo   *repository.SessionRepository
	CourseRepo    *repository.CourseRepository
	Generator     CardGenerator
	Bus           *EventBus
}

func NewFlashcardService(flashcardRepo *repository.FlashcardRepository, sessionRepo *repository.SessionRepository, courseRepo *repository.CourseRepository, generator CardGenerator, bus *EventBus) *FlashcardService {
	return &FlashcardService{
		FlashcardRepo: flashcardRepo,
		SessionRepo:   sessionRepo,
		CourseRepo:    courseRepo,
		Generator:     generator,
		Bus:           bus,
	}
}

// Generate creates cards from the session transcript, links them to the
// session's courses, then broadcasts the result. An empty transcript yields
// empty card lists without calling the provider. Cards are committed before
// the event goes out so subscribers can immediately fetch them.
func (s *FlashcardService) Generate(ctx context.Context, sessionID uint, types []string, maxPerType int) (*FlashcardSet, []model.Flashcard, error) {
	if _, err := s.SessionRepo.FindByID(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrSessionNotFound
		}
		return nil, nil, err
	}

	transcript, err := s.SessionRepo.FullTranscript(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(transcript) == "" {
		return emptyFlashcardSet(), nil, nil
	}

	set, err := s.Generator.GenerateFlashcards(ctx, transcript, types, maxPerType)
	if err != nil {
		return nil, nil, err
	}

	courseIDs, err := s.CourseRepo.FindSessionCourseIDs(sessionID)
	if err != nil {
		return nil, nil, err
	}

	cards := make([]model.Flashcard, 0, len(set.QA)+len(set.Cloze)+len(set.MC))
	cards = append(cards, draftsToCards(sessionID, model.FlashcardTypeQA, set.QA)...)
	cards = append(cards, draftsToCards(sessionID, model.FlashcardTypeCloze, set.Cloze)...)
	cards = append(cards, draftsToCards(sessionID, model.FlashcardTypeMC, set.MC)...)

	cards, err = s.FlashcardRepo.CreateBatch(cards, courseIDs)
	if err != nil {
		return nil, nil, err
	}

	s.Bus.Publish(EventFlashcardsGenerated, &sessionID, "flashcards generated", map[string]interface{}{
		"count": len(cards),
	})
	return set, cards, nil
}

func draftsToCards(sessionID uint, cardType string, drafts []GeneratedCard) []model.Flashcard {
	cards := make([]model.Flashcard, 0, len(drafts))
	for _, d := range drafts {
		sid := sessionID
		answer := d.Answer
		if cardType == model.FlashcardTypeMC {
			encoded, _ := json.Marshal(model.MCAnswer{Correct: d.Correct, Choices: d.Choices})
			answer = string(encoded)
		}
		cards = append(cards, model.Flashcard{
			SessionID: &sid,
			Type:      cardType,
			Question:  d.Question,
			Answer:    answer,
			SourceTs:  d.SourceTs,
		})
	}
	return cards
}

func (s *FlashcardService) Get(id uint) (*model.Flashcard, error) {
	card, err := s.FlashcardRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrFlashcardNotFound
	}
	return card, err
}

func (s *FlashcardService) List(sessionID, courseID uint, cardType string, page, limit int) ([]model.Flashcard, int64, error) {
	return s.FlashcardRepo.List(sessionID, courseID, cardType, page, limit)
}

func (s *FlashcardService) Delete(id uint) error {
	err := s.FlashcardRepo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrFlashcardNotFound
	}
	return err
}
