package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"noted_backend/internal/model"
	"noted_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	svc := &EmailService{Secret: "topsecret"}
	body := []byte("From: prof@uni.edu\r\n\r\nhello")

	assert.NoError(t, svc.VerifySignature(body, signBody("topsecret", body)))
	assert.ErrorIs(t, svc.VerifySignature(body, signBody("wrong", body)), util.ErrInvalidSignature)
	assert.ErrorIs(t, svc.VerifySignature(body, ""), util.ErrInvalidSignature)

	// trailing whitespace from proxies is tolerated
	assert.NoError(t, svc.VerifySignature(body, signBody("topsecret", body)+"\n"))
}

func TestVerifySignatureSkippedWithoutSecret(t *testing.T) {
	svc := &EmailService{}
	assert.NoError(t, svc.VerifySignature([]byte("anything"), ""))
}

func TestParseEmailPlain(t *testing.T) {
	raw := []byte("From: Prof Smith <prof@uni.edu>\r\n" +
		"Subject: Office hours moved\r\n" +
		"Message-ID: <abc123@uni.edu>\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"We meet at 3pm instead.\r\n")

	parsed, err := parseEmail(raw)
	require.NoError(t, err)
	assert.Equal(t, "Office hours moved", parsed.Subject)
	assert.Equal(t, "Prof Smith <prof@uni.edu>", parsed.From)
	assert.Equal(t, "abc123@uni.edu", parsed.MessageID)
	assert.Contains(t, parsed.Body, "We meet at 3pm instead.")
	assert.Empty(t, parsed.ICS)
}

func TestParseEmailMultipartWithICS(t *testing.T) {
	// text/plain plus a base64 text/calendar attachment
	raw := []byte("From: prof@uni.edu\r\n" +
		"Subject: Invitation\r\n" +
		"Message-ID: <inv-1@uni.edu>\r\n" +
		"Content-Type: multipart/mixed; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"See the attached invite.\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/calendar; method=REQUEST\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"QkVHSU46VkNBTEVOREFS\r\n" +
		"--XYZ--\r\n")

	parsed, err := parseEmail(raw)
	require.NoError(t, err)
	assert.Contains(t, parsed.Body, "See the attached invite.")
	assert.Equal(t, "BEGIN:VCALENDAR", string(parsed.ICS))
}

func TestParseEmailQuotedPrintable(t *testing.T) {
	raw := []byte("From: prof@uni.edu\r\n" +
		"Subject: Update\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"caf=C3=A9 at noon\r\n")

	parsed, err := parseEmail(raw)
	require.NoError(t, err)
	assert.Contains(t, parsed.Body, "café at noon")
}

func TestParseEmailUnreadable(t *testing.T) {
	_, err := parseEmail([]byte("no header separator"))
	assert.Error(t, err)
}

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//uni//scheduler//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:ev-1@uni.edu\r\n" +
	"DTSTAMP:20260105T090000Z\r\n" +
	"DTSTART:20260105T150000Z\r\n" +
	"DTEND:20260105T160000Z\r\n" +
	"SUMMARY:Office hours\r\n" +
	"LOCATION:Room 12\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseICSAttachment(t *testing.T) {
	extracted := parseICSAttachment([]byte(sampleICS), "fallback subject", "prof@uni.edu")
	require.NotNil(t, extracted)

	assert.Equal(t, model.ItemKindMeeting, extracted.Type)
	assert.Equal(t, "Office hours", extracted.Title)
	assert.Equal(t, "2026-01-05T15:00:00Z", extracted.Start)
	require.NotNil(t, extracted.DurationMin)
	assert.Equal(t, 60, *extracted.DurationMin)
	assert.Equal(t, "Room 12", extracted.Location)
	assert.Equal(t, "prof@uni.edu", extracted.ProfessorHint)
	assert.Equal(t, 0.95, extracted.Confidence)
}

func TestParseICSAttachmentGarbage(t *testing.T) {
	assert.Nil(t, parseICSAttachment([]byte("not a calendar"), "s", "f"))
}

func TestBuildProposalHeuristicHomework(t *testing.T) {
	svc := &EmailService{}
	msg := &parsedEmail{
		Subject:   "Assignment 3 due Friday",
		From:      "prof@uni.edu",
		MessageID: "m1",
		Body:      "Please submit on the portal.",
	}

	proposal := svc.buildProposal(msg, nil)
	assert.Equal(t, model.ProposerHeuristic, proposal.Proposer)
	assert.Equal(t, model.ItemKindHomework, proposal.Kind)
	assert.Equal(t, "Assignment 3 due Friday", proposal.Title)
	assert.Equal(t, 0.4, proposal.Confidence)
	assert.Equal(t, model.ProposalStatusPending, proposal.Status)
	assert.Equal(t, "prof@uni.edu", proposal.ProfessorEmail)
}

func TestBuildProposalHeuristicDefaultTitle(t *testing.T) {
	svc := &EmailService{}
	proposal := svc.buildProposal(&parsedEmail{MessageID: "m2", Body: "let's sync up"}, nil)
	assert.Equal(t, model.ItemKindMeeting, proposal.Kind)
	assert.Equal(t, "Meeting", proposal.Title)

	proposal = svc.buildProposal(&parsedEmail{MessageID: "m3", Body: "the deadline is monday"}, nil)
	assert.Equal(t, model.ItemKindHomework, proposal.Kind)
	assert.Equal(t, "Homework", proposal.Title)
}

func TestBuildProposalFromExtraction(t *testing.T) {
	svc := &EmailService{}
	duration := 30
	msg := &parsedEmail{Subject: "Quick chat", From: "prof@uni.edu", MessageID: "m4"}
	extracted := &EmailExtraction{
		Type:          "meeting",
		Title:         "Project check-in",
		Start:         "2026-02-10T14:00:00Z",
		DurationMin:   &duration,
		Location:      "Zoom",
		ProfessorHint: "advisor@uni.edu",
		Confidence:    0.9,
	}

	proposal := svc.buildProposal(msg, extracted)
	assert.Equal(t, model.ProposerLLM, proposal.Proposer)
	assert.Equal(t, model.ItemKindMeeting, proposal.Kind)
	assert.Equal(t, "Project check-in", proposal.Title)
	require.NotNil(t, proposal.StartsAt)
	assert.Equal(t, time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC), proposal.StartsAt.UTC())
	assert.Equal(t, &duration, proposal.DurationMinutes)
	assert.Equal(t, "advisor@uni.edu", proposal.ProfessorEmail)
	assert.Equal(t, 0.9, proposal.Confidence)
}

func TestBuildProposalICSWins(t *testing.T) {
	svc := &EmailService{}
	msg := &parsedEmail{Subject: "Invite", MessageID: "m5", ICS: []byte(sampleICS)}
	extracted := &EmailExtraction{Type: "meeting", Title: "Office hours", Confidence: 0.95}

	proposal := svc.buildProposal(msg, extracted)
	assert.Equal(t, model.ProposerICS, proposal.Proposer)
}

func TestBuildProposalNormalizesKind(t *testing.T) {
	svc := &EmailService{}
	proposal := svc.buildProposal(&parsedEmail{MessageID: "m6"}, &EmailExtraction{Type: "exam", Title: "Midterm"})
	assert.Equal(t, model.ItemKindMeeting, proposal.Kind)
}

func TestProposalTTS(t *testing.T) {
	start := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)
	p := &model.ProposedCalendarItem{
		ProfessorEmail: "prof@uni.edu",
		Kind:           model.ItemKindMeeting,
		StartsAt:       &start,
	}
	assert.Equal(t,
		"Email from prof@uni.edu. Meeting detected on Mon Jan 05 at 03:00 PM. Do you want me to add it to your calendar?",
		proposalTTS(p))

	p = &model.ProposedCalendarItem{Kind: model.ItemKindHomework}
	assert.Equal(t,
		"Email from unknown. Homework detected. Do you want me to add it to your calendar?",
		proposalTTS(p))
}
