package service

import (
	"noted_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRightShortAnswer(t *testing.T) {
	tests := []struct {
		name    string
		correct string
		answer  string
		want    bool
	}{
		{"exact match", "photosynthesis", "photosynthesis", true},
		{"case insensitive", "Photosynthesis", "PHOTOSYNTHESIS", true},
		{"answer contains expected", "inertia", "the law of inertia", true},
		{"expected contains answer", "the law of inertia", "inertia", true},
		{"whitespace trimmed", " inertia ", "inertia", true},
		{"unrelated", "inertia", "entropy", false},
		{"empty answer", "inertia", "", false},
		{"empty expected", "", "inertia", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRight(model.FlashcardTypeQA, tt.correct, tt.answer))
		})
	}
}

func TestIsRightMultipleChoice(t *testing.T) {
	assert.True(t, isRight(model.FlashcardTypeMC, "B. 42", "B. 42"))
	assert.False(t, isRight(model.FlashcardTypeMC, "B. 42", "b. 42"))
	assert.False(t, isRight(model.FlashcardTypeMC, "B. 42", "42"))
	assert.False(t, isRight(model.FlashcardTypeMC, "", ""))
}

func TestGradeMixedQuestions(t *testing.T) {
	questions := []QuizQuestion{
		{FlashcardID: 1, Type: model.FlashcardTypeQA, Question: "First law?", Correct: "inertia"},
		{FlashcardID: 2, Type: model.FlashcardTypeMC, Question: "Pick one", Correct: "B", Choices: []string{"A", "B", "C", "D"}},
		{FlashcardID: 3, Type: model.FlashcardTypeQA, Question: "Energy unit?", Correct: "joule"},
	}
	answers := map[string]string{
		"1": "The law of INERTIA",
		"2": "C",
		"3": "joule",
	}

	graded, correct := grade(questions, answers)
	assert.Equal(t, 2, correct)
	assert.Len(t, graded, 3)
	assert.True(t, graded[0].IsRight)
	assert.False(t, graded[1].IsRight)
	assert.True(t, graded[2].IsRight)
	assert.Equal(t, "C", graded[1].Answer)
}

func TestGradeMissingAnswersCountWrong(t *testing.T) {
	questions := []QuizQuestion{
		{FlashcardID: 1, Type: model.FlashcardTypeQA, Correct: "inertia"},
		{FlashcardID: 2, Type: model.FlashcardTypeMC, Correct: "B"},
	}

	graded, correct := grade(questions, map[string]string{})
	assert.Equal(t, 0, correct)
	assert.Len(t, graded, 2)
	for _, g := range graded {
		assert.False(t, g.IsRight)
	}
}

func TestGradeEmptySnapshot(t *testing.T) {
	graded, correct := grade(nil, map[string]string{"1": "anything"})
	assert.Empty(t, graded)
	assert.Zero(t, correct)
}

func TestQuestionViewsStripAnswers(t *testing.T) {
	questions := []QuizQuestion{
		{FlashcardID: 1, Type: model.FlashcardTypeMC, Question: "Pick one", Correct: "B", Choices: []string{"A", "B", "C", "D"}},
	}

	vs := views(questions)
	assert.Len(t, vs, 1)
	assert.Equal(t, uint(1), vs[0].FlashcardID)
	assert.Equal(t, []string{"A", "B", "C", "D"}, vs[0].Choices)
}
