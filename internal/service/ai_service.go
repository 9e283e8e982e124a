package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"noted_backend/internal/config"
	"noted_backend/internal/model"
	"noted_backend/internal/util"
	"strings"
)

// AIService talks to an OpenAI-compatible provider. With Fake enabled it
// returns deterministic canned output so the rest of the system can run
// without network access or an API key.
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GeneratedCard is one card as the provider returns it. Answer is set for
// qa and cloze cards; Correct/Choices for mc cards.
type GeneratedCard struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer,omitempty"`
	Correct  string   `json:"correct,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	SourceTs *float64 `json:"source_ts,omitempty"`
}

// FlashcardSet groups generated cards by type. Unrequested types are empty
// slices, never nil.
type FlashcardSet struct {
	QA    []GeneratedCard `json:"qa"`
	Cloze []GeneratedCard `json:"cloze"`
	MC    []GeneratedCard `json:"mc"`
}

// SummaryResult is the structured summary shape stored on the session.
type SummaryResult struct {
	Bullets  []string         `json:"bullets"`
	Sections []SummarySection `json:"sections"`
	Keywords []string         `json:"keywords"`
}

type SummarySection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// EmailExtraction is the fixed shape the extraction prompt asks for.
type EmailExtraction struct {
	Type          string  `json:"type"`
	Title         string  `json:"title"`
	Start         string  `json:"start,omitempty"`
	DurationMin   *int    `json:"duration_min,omitempty"`
	Location      string  `json:"location,omitempty"`
	Description   string  `json:"description,omitempty"`
	CourseHint    string  `json:"course_hint,omitempty"`
	ProfessorHint string  `json:"professor_hint,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
}

var fakeQACards = []GeneratedCard{
	{Question: "What is Newton's first law?", Answer: "An object remains at rest or in uniform motion unless acted on by a net external force."},
	{Question: "What is Newton's second law?", Answer: "The net force on an object equals its mass times its acceleration."},
	{Question: "What is Newton's third law?", Answer: "For every action there is an equal and opposite reaction."},
}

var fakeClozeCards = []GeneratedCard{
	{Question: "An object in motion stays in ____ unless acted on by a net external force.", Answer: "motion"},
	{Question: "Force equals mass times ____.", Answer: "acceleration"},
}

var fakeMCCards = []GeneratedCard{
	{
		Question: "Which law states that force equals mass times acceleration?",
		Correct:  "Newton's second law",
		Choices:  []string{"Newton's second law", "Newton's first law", "Newton's third law", "The law of gravitation"},
	},
	{
		Question: "What does Newton's third law describe?",
		Correct:  "Equal and opposite reactions",
		Choices:  []string{"Equal and opposite reactions", "Inertia", "Conservation of energy", "Terminal velocity"},
	},
}

func (s *AIService) IsFake() bool {
	return s.config.Fake
}

// Complete performs a single chat completion.
func (s *AIService) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := []AIChatMessage{}
	if system != "" {
		messages = append(messages, AIChatMessage{Role: "system", Content: system})
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: prompt})

	return s.postChatCompletion(ctx, ChatCompletionRequest{
		Model:    s.config.Model,
		Messages: messages,
	})
}

// postChatCompletion sends any chat-completions payload and returns the
// first choice's text. AnalyzeImage uses it with a multimodal message that
// does not fit ChatCompletionRequest.
func (s *AIService) postChatCompletion(ctx context.Context, reqBody interface{}) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", mapTransportError(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &util.ProviderError{
			Code:   util.ProviderCodeTransport,
			Detail: fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &util.ProviderError{Code: util.ProviderCodeTransport, Detail: "unreadable provider response"}
	}

	if len(result.Choices) == 0 {
		return "", &util.ProviderError{Code: util.ProviderCodeTransport, Detail: "provider returned no choices"}
	}

	return result.Choices[0].Message.Content, nil
}

// Transcribe sends WAV audio to the provider's transcription endpoint.
func (s *AIService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if s.config.Fake {
		return "(fake) hello world", nil
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.WriteField("model", "whisper-1"); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", mapTransportError(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &util.ProviderError{
			Code:   util.ProviderCodeTransport,
			Detail: fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &util.ProviderError{Code: util.ProviderCodeBadFormat, Detail: "transcription response is not valid JSON"}
	}

	return result.Text, nil
}

// GenerateFlashcards produces up to maxPerType cards for each requested
// type. Unrequested types come back as empty slices.
func (s *AIService) GenerateFlashcards(ctx context.Context, transcript string, types []string, maxPerType int) (*FlashcardSet, error) {
	if maxPerType <= 0 {
		maxPerType = 5
	}
	if len(types) == 0 {
		types = []string{model.FlashcardTypeQA}
	}

	wanted := map[string]bool{}
	for _, t := range types {
		wanted[t] = true
	}

	if s.config.Fake {
		set := emptyFlashcardSet()
		if wanted[model.FlashcardTypeQA] {
			set.QA = cycleCards(fakeQACards, maxPerType)
		}
		if wanted[model.FlashcardTypeCloze] {
			set.Cloze = cycleCards(fakeClozeCards, maxPerType)
		}
		if wanted[model.FlashcardTypeMC] {
			set.MC = cycleCards(fakeMCCards, maxPerType)
		}
		return set, nil
	}

	system := "You are a study assistant that writes concise flashcards from lecture transcripts. Respond with JSON only."
	prompt := fmt.Sprintf(
		"Write flashcards covering the key points of this lecture transcript, at most %d per type. "+
			"Requested types: %s. Respond with a JSON object with keys \"qa\", \"cloze\" and \"mc\". "+
			"qa and cloze entries have fields \"question\" and \"answer\"; mc entries have \"question\", "+
			"\"correct\" and \"choices\" (exactly 4 options including the correct one). "+
			"Leave unrequested types as empty arrays.\n\nTranscript:\n%s",
		maxPerType, strings.Join(types, ", "), transcript,
	)

	content, err := s.Complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	var set FlashcardSet
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &set); err != nil {
		return nil, &util.ProviderError{Code: util.ProviderCodeBadFormat, Detail: "flashcard response is not a JSON object"}
	}

	for _, mc := range set.MC {
		if mc.Correct == "" || len(mc.Choices) != 4 {
			return nil, &util.ProviderError{Code: util.ProviderCodeBadFormat, Detail: "mc card is missing correct answer or 4 choices"}
		}
	}

	if !wanted[model.FlashcardTypeQA] {
		set.QA = nil
	}
	if !wanted[model.FlashcardTypeCloze] {
		set.Cloze = nil
	}
	if !wanted[model.FlashcardTypeMC] {
		set.MC = nil
	}
	set.QA = capCards(set.QA, maxPerType)
	set.Cloze = capCards(set.Cloze, maxPerType)
	set.MC = capCards(set.MC, maxPerType)

	return &set, nil
}

func emptyFlashcardSet() *FlashcardSet {
	return &FlashcardSet{QA: []GeneratedCard{}, Cloze: []GeneratedCard{}, MC: []GeneratedCard{}}
}

func cycleCards(src []GeneratedCard, n int) []GeneratedCard {
	if n > len(src) {
		n = len(src)
	}
	return append([]GeneratedCard{}, src[:n]...)
}

func capCards(cards []GeneratedCard, n int) []GeneratedCard {
	if cards == nil {
		return []GeneratedCard{}
	}
	if len(cards) > n {
		return cards[:n]
	}
	return cards
}

// GenerateSummary returns the structured summary stored on the session.
func (s *AIService) GenerateSummary(ctx context.Context, transcript string) (*SummaryResult, error) {
	if s.config.Fake {
		return &SummaryResult{
			Bullets:  []string{"(fake) " + truncate(transcript, 80)},
			Sections: []SummarySection{{Title: "Overview", Content: "(fake) summary section"}},
			Keywords: []string{"fake", "summary"},
		}, nil
	}

	system := "You are a study assistant that summarizes lecture transcripts for students. Respond with JSON only."
	prompt := "Summarize the following lecture transcript. Respond with a JSON object with keys " +
		"\"bullets\" (short key points), \"sections\" (objects with \"title\" and \"content\") and " +
		"\"keywords\" (important terms):\n\n" + transcript

	content, err := s.Complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	var summary SummaryResult
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &summary); err != nil {
		return nil, &util.ProviderError{Code: util.ProviderCodeBadFormat, Detail: "summary response is not a JSON object"}
	}

	return &summary, nil
}

// Explain modes.
const (
	ExplainModeELI5      = "eli5"
	ExplainModeTechnical = "technical"
	ExplainModeAnalogy   = "analogy"
)

func (s *AIService) Explain(ctx context.Context, concept, mode, transcript string) (string, error) {
	if mode != ExplainModeELI5 && mode != ExplainModeAnalogy {
		mode = ExplainModeTechnical
	}

	if s.config.Fake {
		return fmt.Sprintf("(fake) %s explanation of %s", mode, concept), nil
	}

	var style string
	switch mode {
	case ExplainModeELI5:
		style = "Explain it like the student is five years old, with simple words."
	case ExplainModeAnalogy:
		style = "Explain it through a concrete everyday analogy."
	default:
		style = "Explain it precisely, with correct technical vocabulary."
	}

	system := "You are a study assistant that explains concepts using the student's own lecture material."
	prompt := fmt.Sprintf("Explain %q to a student. %s Ground the explanation in this lecture transcript where possible:\n\n%s", concept, style, transcript)

	return s.Complete(ctx, system, prompt)
}

// AnalyzeImage describes an uploaded lecture photo (a whiteboard, a slide)
// so the description can join the session transcript.
func (s *AIService) AnalyzeImage(ctx context.Context, image []byte, contentType string) (string, error) {
	if s.config.Fake {
		return "(fake) whiteboard with a force diagram and the equation F = ma", nil
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(image))
	payload := map[string]interface{}{
		"model": s.config.Model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": "Describe the study-relevant content of this lecture photo: any text, equations, diagrams or slide headings. Answer in a few sentences of plain prose.",
					},
					{
						"type":      "image_url",
						"image_url": map[string]string{"url": dataURL},
					},
				},
			},
		},
	}

	return s.postChatCompletion(ctx, payload)
}

// ExtractEvent asks the model whether an email describes a calendar-worthy
// event. In fake mode it returns nothing so the keyword heuristics drive
// extraction deterministically.
func (s *AIService) ExtractEvent(ctx context.Context, subject, body string) (*EmailExtraction, error) {
	if s.config.Fake {
		return nil, nil
	}

	system := "You extract calendar items from university emails. Respond with JSON only."
	prompt := fmt.Sprintf(
		"Subject: %s\n\nBody:\n%s\n\nReturn ONLY compact JSON with keys: "+
			`{"type":"meeting|homework","title":str,"start":ISO8601?,"duration_min":int?,`+
			`"location":str?,"description":str?,"course_hint":str?,"professor_hint":str?,"confidence":number?}`,
		subject, body,
	)

	content, err := s.Complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	var extraction EmailExtraction
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &extraction); err != nil {
		return nil, &util.ProviderError{Code: util.ProviderCodeBadFormat, Detail: "extraction response is not a JSON object"}
	}

	return &extraction, nil
}

func mapTransportError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &util.ProviderError{Code: util.ProviderCodeTimeout, Detail: "provider did not answer in time"}
	}
	return &util.ProviderError{Code: util.ProviderCodeTransport, Detail: err.Error()}
}

// stripCodeFence unwraps ```json fenced blocks some models insist on.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
