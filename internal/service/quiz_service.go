package service

import (
	"encoding/json"
	"errors"
	"math/rand"
	"noted_backend/internal/model"
	"noted_backend/internal/repository"
	"noted_backend/internal/util"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const defaultQuizSize = 5

type QuizService struct {
	QuizRepo      *repository.QuizRepository
	FlashcardRepo *repository.FlashcardRepository
	SessionRepo   *repository.SessionRepository
	Bus           *EventBus
}

func NewQuizService(quizRepo *repository.QuizRepository, flashcardRepo *repository.FlashcardRepository, sessionRepo *repository.SessionRepository, bus *EventBus) *QuizService {
	return &QuizService{
		QuizRepo:      quizRepo,
		FlashcardRepo: flashcardRepo,
		SessionRepo:   sessionRepo,
		Bus:           bus,
	}
}

// QuizQuestion is one sampled question as snapshotted on the attempt. The
// stored form keeps the expected answer; the client view strips it.
type QuizQuestion struct {
	FlashcardID uint     `json:"flashcardId"`
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Choices     []string `json:"choices,omitempty"`
	Correct     string   `json:"correct"`
}

// QuestionView is the client-facing question without the answer.
type QuestionView struct {
	FlashcardID uint     `json:"flashcardId"`
	Type        string   `json:"type"`
	Question    string   `json:"question"`
	Choices     []string `json:"choices,omitempty"`
}

// Start samples up to n qa/mc flashcards from the session and snapshots
// them into a new unscored attempt.
func (s *QuizService) Start(sessionID uint, n int) (*model.QuizAttempt, []QuestionView, error) {
	if n <= 0 {
		n = defaultQuizSize
	}

	if _, err := s.SessionRepo.FindByID(sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrSessionNotFound
		}
		return nil, nil, err
	}

	cards, err := s.FlashcardRepo.FindBySessionAndTypes(sessionID, []string{model.FlashcardTypeQA, model.FlashcardTypeMC})
	if err != nil {
		return nil, nil, err
	}
	if len(cards) == 0 {
		return nil, nil, util.ErrNoFlashcards
	}

	rand.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	if len(cards) > n {
		cards = cards[:n]
	}

	questions := make([]QuizQuestion, 0, len(cards))
	for _, card := range cards {
		q := QuizQuestion{
			FlashcardID: card.ID,
			Type:        card.Type,
			Question:    card.Question,
			Correct:     card.Answer,
		}
		if card.Type == model.FlashcardTypeMC {
			var mc model.MCAnswer
			if err := json.Unmarshal([]byte(card.Answer), &mc); err != nil {
				continue
			}
			q.Correct = mc.Correct
			q.Choices = mc.Choices
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, nil, util.ErrNoFlashcards
	}

	snapshot, err := json.Marshal(questions)
	if err != nil {
		return nil, nil, err
	}

	attempt := &model.QuizAttempt{
		SessionID:    sessionID,
		Questions:    string(snapshot),
		NumQuestions: len(questions),
	}
	if err := s.QuizRepo.Create(attempt); err != nil {
		return nil, nil, err
	}

	return attempt, views(questions), nil
}

func views(questions []QuizQuestion) []QuestionView {
	out := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuestionView{
			FlashcardID: q.FlashcardID,
			Type:        q.Type,
			Question:    q.Question,
			Choices:     q.Choices,
		})
	}
	return out
}

// GradedAnswer is one question with the answer the student gave.
type GradedAnswer struct {
	FlashcardID uint   `json:"flashcardId"`
	Question    string `json:"question"`
	Correct     string `json:"correct"`
	Answer      string `json:"answer"`
	IsRight     bool   `json:"isRight"`
}

// Submit grades an attempt against its snapshot. Answers are keyed by
// flashcard id. Short answers pass on case-insensitive containment in
// either direction; multiple choice requires the exact option text. An
// empty snapshot scores zero. Submission is terminal.
func (s *QuizService) Submit(attemptID uint, answers map[string]string) (*model.QuizAttempt, []GradedAnswer, error) {
	attempt, err := s.QuizRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrAttemptNotFound
		}
		return nil, nil, err
	}
	if attempt.Score != nil {
		return nil, nil, util.ErrAttemptSubmitted
	}

	var questions []QuizQuestion
	if err := json.Unmarshal([]byte(attempt.Questions), &questions); err != nil {
		return nil, nil, err
	}

	graded, correct := grade(questions, answers)

	score := 0.0
	if len(questions) > 0 {
		score = float64(correct) / float64(len(questions))
	}

	detail, _ := json.Marshal(graded)
	attempt.Answers = string(detail)
	attempt.NumCorrect = correct
	attempt.Score = &score
	if err := s.QuizRepo.Update(attempt); err != nil {
		return nil, nil, err
	}

	s.Bus.Publish(EventQuizSubmitted, &attempt.SessionID, "quiz submitted", map[string]interface{}{
		"attempt_id": attempt.ID,
		"score":      score,
		"correct":    correct,
		"total":      len(questions),
	})
	return attempt, graded, nil
}

func (s *QuizService) Attempts(sessionID uint) ([]model.QuizAttempt, error) {
	return s.QuizRepo.FindBySession(sessionID)
}

func grade(questions []QuizQuestion, answers map[string]string) ([]GradedAnswer, int) {
	graded := make([]GradedAnswer, 0, len(questions))
	correct := 0
	for _, q := range questions {
		answer := answers[strconv.FormatUint(uint64(q.FlashcardID), 10)]
		right := isRight(q.Type, q.Correct, answer)
		if right {
			correct++
		}
		graded = append(graded, GradedAnswer{
			FlashcardID: q.FlashcardID,
			Question:    q.Question,
			Correct:     q.Correct,
			Answer:      answer,
			IsRight:     right,
		})
	}
	return graded, correct
}

func isRight(cardType, correct, answer string) bool {
	if cardType == model.FlashcardTypeMC {
		return correct != "" && answer == correct
	}

	c := strings.ToLower(strings.TrimSpace(correct))
	a := strings.ToLower(strings.TrimSpace(answer))
	if c == "" || a == "" {
		return false
	}
	return strings.Contains(a, c) || strings.Contains(c, a)
}
