package service

import (
	"errors"
	"noted_backend/internal/model"
	"noted_backend/internal/repository"
	"noted_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type SessionService struct {
	SessionRepo *repository.SessionRepository
	Bus         *EventBus
}

func NewSessionService(sessionRepo *repository.SessionRepository, bus *EventBus) *SessionService {
	return &SessionService{SessionRepo: sessionRepo, Bus: bus}
}

func (s *SessionService) Create(title string) (*model.Session, error) {
	session := &model.Session{
		Title:     title,
		Status:    model.SessionStatusActive,
		StartedAt: time.Now().UTC(),
	}
	if err := s.SessionRepo.Create(session); err != nil {
		return nil, err
	}

	s.Bus.Publish(EventSessionCreated, &session.ID, "session created", map[string]interface{}{
		"title": session.Title,
	})
	return session, nil
}

func (s *SessionService) Get(id uint) (*model.Session, error) {
	session, err := s.SessionRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	return session, err
}

func (s *SessionService) List(page, limit int) ([]model.Session, int64, error) {
	return s.SessionRepo.List(page, limit)
}

func (s *SessionService) End(id uint) (*model.Session, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusEnded {
		return nil, util.ErrSessionEnded
	}

	endedAt := time.Now().UTC()
	if err := s.SessionRepo.End(id, endedAt); err != nil {
		return nil, err
	}
	session.Status = model.SessionStatusEnded
	session.EndedAt = &endedAt

	s.Bus.Publish(EventSessionEnded, &session.ID, "session ended", nil)
	return session, nil
}

func (s *SessionService) Delete(id uint) error {
	err := s.SessionRepo.Delete(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	s.Bus.Publish(EventSessionDeleted, &id, "session deleted", nil)
	return nil
}

// ChunkInput is one transcript fragment as the device webhook delivers it.
type ChunkInput struct {
	Text       string  `json:"text" binding:"required"`
	TsStart    float64 `json:"tsStart"`
	TsEnd      float64 `json:"tsEnd"`
	Bookmarked bool    `json:"bookmarked"`
}

// AddChunks appends webhook transcript fragments to an active session and
// broadcasts the batch.
func (s *SessionService) AddChunks(sessionID uint, inputs []ChunkInput) ([]model.TranscriptChunk, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusEnded {
		return nil, util.ErrSessionEnded
	}

	chunks := make([]model.TranscriptChunk, 0, len(inputs))
	for _, in := range inputs {
		chunks = append(chunks, model.TranscriptChunk{
			SessionID:  sessionID,
			Text:       in.Text,
			TsStart:    in.TsStart,
			TsEnd:      in.TsEnd,
			Bookmarked: in.Bookmarked,
			Source:     model.ChunkSourceWebhook,
		})
	}
	if err := s.SessionRepo.AddChunks(chunks); err != nil {
		return nil, err
	}

	s.Bus.Publish(EventChunkAdded, &sessionID, "transcript chunks received", map[string]interface{}{
		"count":  len(chunks),
		"source": model.ChunkSourceWebhook,
	})
	return chunks, nil
}

func (s *SessionService) Chunks(sessionID uint) ([]model.TranscriptChunk, error) {
	if _, err := s.Get(sessionID); err != nil {
		return nil, err
	}
	return s.SessionRepo.FindChunks(sessionID)
}

// Timeline returns a session's chunks and assets, with optional substring
// and bookmark filters on the chunks.
func (s *SessionService) Timeline(sessionID uint, q string, bookmarked *bool) ([]model.TranscriptChunk, error) {
	if _, err := s.Get(sessionID); err != nil {
		return nil, err
	}
	return s.SessionRepo.TimelineChunks(sessionID, q, bookmarked)
}

// Bookmark marks every chunk overlapping the given timestamp range.
func (s *SessionService) Bookmark(sessionID uint, tsStart, tsEnd float64) (int64, error) {
	if _, err := s.Get(sessionID); err != nil {
		return 0, err
	}
	return s.SessionRepo.BookmarkRange(sessionID, tsStart, tsEnd)
}

func (s *SessionService) Transcript(sessionID uint) (string, error) {
	if _, err := s.Get(sessionID); err != nil {
		return "", err
	}
	return s.SessionRepo.FullTranscript(sessionID)
}
