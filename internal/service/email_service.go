package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"noted_backend/internal/model"
	"noted_backend/internal/repository"
	"noted_backend/internal/util"
	"noted_backend/pkg/logger"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExtractorClient asks a model to pull a calendar item out of an email.
type ExtractorClient interface {
	ExtractEvent(ctx context.Context, subject, body string) (*EmailExtraction, error)
}

// EmailService ingests raw RFC822 email from the inbound webhook and turns
// it into pending calendar proposals.
type EmailService struct {
	ProposalRepo *repository.ProposalRepository
	Extractor    ExtractorClient
	Bus          *EventBus
	Secret       string
}

func NewEmailService(proposalRepo *repository.ProposalRepository, extractor ExtractorClient, bus *EventBus, secret string) *EmailService {
	return &EmailService{
		ProposalRepo: proposalRepo,
		Extractor:    extractor,
		Bus:          bus,
		Secret:       secret,
	}
}

// VerifySignature checks the hex HMAC-SHA256 of the raw body. With no
// secret configured verification is skipped.
func (s *EmailService) VerifySignature(body []byte, signature string) error {
	if s.Secret == "" {
		return nil
	}
	if signature == "" {
		return util.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(s.Secret))
	mac.Write(body)
	digest := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(digest), []byte(strings.TrimSpace(signature))) {
		return util.ErrInvalidSignature
	}
	return nil
}

type parsedEmail struct {
	Subject   string
	From      string
	MessageID string
	Body      string
	ICS       []byte
}

// ProcessInbound parses the email and files a proposal. An ICS attachment
// wins over model extraction, which wins over the keyword heuristic.
// Returns the proposal and whether the message was already processed.
func (s *EmailService) ProcessInbound(ctx context.Context, raw []byte) (*model.ProposedCalendarItem, bool, error) {
	msg, err := parseEmail(raw)
	if err != nil {
		return nil, false, err
	}
	if msg.MessageID == "" {
		msg.MessageID = uuid.New().String()
	}

	seen, err := s.ProposalRepo.SeenMessage(ctx, msg.MessageID)
	if err != nil {
		return nil, false, err
	}
	if seen {
		existing, err := s.ProposalRepo.FindByMessageID(msg.MessageID)
		if err != nil {
			return nil, false, err
		}
		return existing, true, nil
	}

	extracted := s.extract(ctx, msg)

	proposal := s.buildProposal(msg, extracted)
	if err := s.ProposalRepo.Create(proposal); err != nil {
		// a concurrent delivery may have won the unique index race
		existing, findErr := s.ProposalRepo.FindByMessageID(msg.MessageID)
		if findErr == nil {
			return existing, true, nil
		}
		return nil, false, err
	}
	// claim the id only once the row is committed
	s.ProposalRepo.MarkMessageSeen(ctx, msg.MessageID)

	s.Bus.Publish(EventProposalCreated, nil, "calendar proposal created", map[string]interface{}{
		"proposal_id":     proposal.ID,
		"kind":            proposal.Kind,
		"title":           proposal.Title,
		"start":           startISO(proposal.StartsAt),
		"professor_email": proposal.ProfessorEmail,
		"confidence":      proposal.Confidence,
		"tts":             proposalTTS(proposal),
	})

	return proposal, false, nil
}

func (s *EmailService) extract(ctx context.Context, msg *parsedEmail) *EmailExtraction {
	if len(msg.ICS) > 0 {
		if extracted := parseICSAttachment(msg.ICS, msg.Subject, msg.From); extracted != nil {
			return extracted
		}
	}

	extracted, err := s.Extractor.ExtractEvent(ctx, msg.Subject, msg.Body)
	if err != nil {
		logger.Log.Warn("Email extraction failed, using heuristics", zap.Error(err))
		return nil
	}
	if extracted != nil && extracted.Confidence == 0 {
		extracted.Confidence = 0.9
	}
	return extracted
}

func (s *EmailService) buildProposal(msg *parsedEmail, extracted *EmailExtraction) *model.ProposedCalendarItem {
	proposal := &model.ProposedCalendarItem{
		MessageID:      msg.MessageID,
		Source:         "email",
		ProfessorEmail: msg.From,
		Status:         model.ProposalStatusPending,
	}

	if extracted == nil {
		// keyword heuristic
		low := strings.ToLower(msg.Subject + "\n" + msg.Body)
		kind := model.ItemKindMeeting
		for _, k := range []string{"due", "deadline", "assignment"} {
			if strings.Contains(low, k) {
				kind = model.ItemKindHomework
				break
			}
		}

		title := truncate(msg.Subject, 140)
		if title == "" {
			if kind == model.ItemKindHomework {
				title = "Homework"
			} else {
				title = "Meeting"
			}
		}

		proposal.Proposer = model.ProposerHeuristic
		proposal.Kind = kind
		proposal.Title = title
		proposal.Confidence = 0.4

		raw, _ := json.Marshal(map[string]string{"subject": msg.Subject})
		proposal.Raw = string(raw)
		return proposal
	}

	proposal.Proposer = model.ProposerLLM
	if extracted.Confidence >= 0.95 && len(msg.ICS) > 0 {
		proposal.Proposer = model.ProposerICS
	}

	proposal.Kind = extracted.Type
	if proposal.Kind != model.ItemKindHomework {
		proposal.Kind = model.ItemKindMeeting
	}

	proposal.Title = extracted.Title
	if proposal.Title == "" {
		proposal.Title = truncate(msg.Subject, 140)
	}

	if extracted.Start != "" {
		if start, err := time.Parse(time.RFC3339, extracted.Start); err == nil {
			proposal.StartsAt = &start
		}
	}
	proposal.DurationMinutes = extracted.DurationMin
	proposal.Location = extracted.Location
	proposal.Notes = extracted.Description
	if extracted.ProfessorHint != "" {
		proposal.ProfessorEmail = extracted.ProfessorHint
	}
	proposal.Confidence = extracted.Confidence

	raw, _ := json.Marshal(extracted)
	proposal.Raw = string(raw)
	return proposal
}

func parseEmail(raw []byte) (*parsedEmail, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unreadable email: %w", err)
	}

	parsed := &parsedEmail{
		Subject:   strings.TrimSpace(msg.Header.Get("Subject")),
		From:      strings.TrimSpace(msg.Header.Get("From")),
		MessageID: strings.Trim(strings.TrimSpace(msg.Header.Get("Message-ID")), "<>"),
	}

	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		reader := multipart.NewReader(msg.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				break
			}
			collectPart(parsed, part)
		}
	} else {
		data, _ := io.ReadAll(decodeTransfer(msg.Body, msg.Header.Get("Content-Transfer-Encoding")))
		if mediaType == "text/calendar" {
			parsed.ICS = data
		} else {
			parsed.Body = string(data)
		}
	}

	return parsed, nil
}

func collectPart(parsed *parsedEmail, part *multipart.Part) {
	defer part.Close()

	partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
	if err != nil {
		return
	}

	data, err := io.ReadAll(decodeTransfer(part, part.Header.Get("Content-Transfer-Encoding")))
	if err != nil {
		return
	}

	switch partType {
	case "text/plain":
		parsed.Body += string(data)
	case "text/calendar":
		if len(parsed.ICS) == 0 {
			parsed.ICS = data
		}
	}
}

func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// parseICSAttachment reads the first VEVENT of an ICS attachment.
func parseICSAttachment(data []byte, subject, from string) *EmailExtraction {
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	for _, ev := range cal.Events() {
		start, err := ev.GetStartAt()
		if err != nil {
			continue
		}
		end, err := ev.GetEndAt()
		if err != nil {
			continue
		}

		title := propValue(ev, ics.ComponentPropertySummary)
		if title == "" {
			title = subject
		}

		duration := int(end.Sub(start).Minutes())
		return &EmailExtraction{
			Type:          model.ItemKindMeeting,
			Title:         title,
			Start:         start.Format(time.RFC3339),
			DurationMin:   &duration,
			Location:      propValue(ev, ics.ComponentPropertyLocation),
			Description:   propValue(ev, ics.ComponentPropertyDescription),
			ProfessorHint: from,
			Confidence:    0.95,
		}
	}
	return nil
}

func propValue(ev *ics.VEvent, prop ics.ComponentProperty) string {
	p := ev.GetProperty(prop)
	if p == nil {
		return ""
	}
	return p.Value
}

func proposalTTS(p *model.ProposedCalendarItem) string {
	from := p.ProfessorEmail
	if from == "" {
		from = "unknown"
	}

	kind := "Meeting"
	if p.Kind == model.ItemKindHomework {
		kind = "Homework"
	}

	tts := fmt.Sprintf("Email from %s. %s detected", from, kind)
	if p.StartsAt != nil {
		tts += " on " + p.StartsAt.Format("Mon Jan 02 at 03:04 PM")
	}
	return tts + ". Do you want me to add it to your calendar?"
}

func startISO(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
