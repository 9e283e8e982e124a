package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"noted_backend/internal/config"
	"noted_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAI() *AIService {
	return NewAIService(config.AIConfig{Fake: true})
}

func providerCode(t *testing.T, err error) string {
	t.Helper()
	var pe *util.ProviderError
	require.ErrorAs(t, err, &pe)
	return pe.Code
}

func TestFakeTranscribe(t *testing.T) {
	text, err := fakeAI().Transcribe(context.Background(), []byte{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "(fake) hello world", text)
}

func TestFakeAnalyzeImage(t *testing.T) {
	text, err := fakeAI().AnalyzeImage(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "(fake) whiteboard with a force diagram and the equation F = ma", text)
}

func TestFakeFlashcardsByType(t *testing.T) {
	set, err := fakeAI().GenerateFlashcards(context.Background(), "transcript", []string{"qa", "mc"}, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, set.QA)
	assert.NotEmpty(t, set.MC)
	assert.Empty(t, set.Cloze)
	assert.NotNil(t, set.Cloze)

	for _, card := range set.MC {
		assert.Len(t, card.Choices, 4)
		assert.Contains(t, card.Choices, card.Correct)
	}
}

func TestFakeFlashcardsDefaultToQA(t *testing.T) {
	set, err := fakeAI().GenerateFlashcards(context.Background(), "transcript", nil, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, set.QA)
	assert.Empty(t, set.Cloze)
	assert.Empty(t, set.MC)
}

func TestFakeFlashcardsHonorsMaxPerType(t *testing.T) {
	set, err := fakeAI().GenerateFlashcards(context.Background(), "transcript", []string{"qa"}, 1)
	require.NoError(t, err)
	assert.Len(t, set.QA, 1)
}

func TestFakeSummaryTruncatesBullet(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "0123456789"
	}

	summary, err := fakeAI().GenerateSummary(context.Background(), long)
	require.NoError(t, err)
	require.NotEmpty(t, summary.Bullets)
	assert.Equal(t, "(fake) "+long[:80], summary.Bullets[0])
	assert.NotEmpty(t, summary.Sections)
	assert.NotEmpty(t, summary.Keywords)
}

func TestFakeExplainNormalizesMode(t *testing.T) {
	out, err := fakeAI().Explain(context.Background(), "entropy", "eli5", "transcript")
	require.NoError(t, err)
	assert.Equal(t, "(fake) eli5 explanation of entropy", out)

	out, err = fakeAI().Explain(context.Background(), "entropy", "nonsense", "transcript")
	require.NoError(t, err)
	assert.Equal(t, "(fake) technical explanation of entropy", out)
}

func TestFakeExtractEventIsNil(t *testing.T) {
	extracted, err := fakeAI().ExtractEvent(context.Background(), "Subject", "Body")
	require.NoError(t, err)
	assert.Nil(t, extracted)
}

func TestCompleteMapsProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL})
	_, err := ai.Complete(context.Background(), "", "prompt")
	assert.Equal(t, util.ProviderCodeTransport, providerCode(t, err))
}

func TestCompleteMapsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ai.Complete(ctx, "", "prompt")
	assert.Equal(t, util.ProviderCodeTimeout, providerCode(t, err))
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL})
	_, err := ai.Complete(context.Background(), "", "prompt")
	assert.Equal(t, util.ProviderCodeTransport, providerCode(t, err))
}

func TestGenerateFlashcardsRejectsBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"not json at all"}}]}`))
	}))
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL})
	_, err := ai.GenerateFlashcards(context.Background(), "transcript", []string{"qa"}, 2)
	assert.Equal(t, util.ProviderCodeBadFormat, providerCode(t, err))
}

func TestGenerateFlashcardsRejectsMalformedMC(t *testing.T) {
	content := `{"qa":[],"cloze":[],"mc":[{"question":"Q","correct":"A","choices":["A","B"]}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL})
	_, err := ai.GenerateFlashcards(context.Background(), "transcript", []string{"mc"}, 2)
	assert.Equal(t, util.ProviderCodeBadFormat, providerCode(t, err))
}

func TestGenerateFlashcardsUnwrapsCodeFence(t *testing.T) {
	content := "```json\n{\"qa\":[{\"question\":\"Q\",\"answer\":\"A\"}],\"cloze\":[],\"mc\":[]}\n```"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL})
	set, err := ai.GenerateFlashcards(context.Background(), "transcript", []string{"qa"}, 1)
	require.NoError(t, err)
	require.Len(t, set.QA, 1)
	assert.Equal(t, "Q", set.QA[0].Question)
	assert.Equal(t, "A", set.QA[0].Answer)
	assert.Empty(t, set.MC)
}

func TestAnalyzeImageSendsDataURL(t *testing.T) {
	var payload string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		payload = string(raw)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"a slide about entropy"}}]}`))
	}))
	defer srv.Close()

	ai := NewAIService(config.AIConfig{BaseURL: srv.URL})
	text, err := ai.AnalyzeImage(context.Background(), []byte{0x89, 0x50}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "a slide about entropy", text)
	assert.Contains(t, payload, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte{0x89, 0x50}))
	assert.Contains(t, payload, "image_url")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `[1,2]`, stripCodeFence("  ```json\n[1,2]\n```  "))
}

func TestMapTransportError(t *testing.T) {
	err := mapTransportError(context.DeadlineExceeded)
	assert.Equal(t, util.ProviderCodeTimeout, providerCode(t, err))

	err = mapTransportError(errors.New("connection refused"))
	assert.Equal(t, util.ProviderCodeTransport, providerCode(t, err))
}
