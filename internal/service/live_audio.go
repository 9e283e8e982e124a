package service

import (
	"context"
	"net/http"
	"noted_backend/internal/config"
	"noted_backend/internal/model"
	"noted_backend/internal/repository"
	"noted_backend/internal/util"
	"noted_backend/pkg/logger"
	"noted_backend/pkg/monitoring"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	liveAudioReadLimit = 1 << 20
	sampleRate         = 16000
	channels           = 1
	bitsPerSample      = 16
)

// Transcriber turns WAV audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// LiveAudioService accepts raw PCM over a websocket, transcribes it in
// rolling windows and commits the final transcript on flush.
type LiveAudioService struct {
	Transcriber Transcriber
	SessionRepo *repository.SessionRepository
	Bus         *EventBus
	cfg         config.LiveAudioConfig
}

func NewLiveAudioService(transcriber Transcriber, sessionRepo *repository.SessionRepository, bus *EventBus, cfg config.LiveAudioConfig) *LiveAudioService {
	return &LiveAudioService{
		Transcriber: transcriber,
		SessionRepo: sessionRepo,
		Bus:         bus,
		cfg:         cfg,
	}
}

type transcriptFrame struct {
	Transcript string  `json:"transcript"`
	Final      bool    `json:"final"`
	Error      string  `json:"error,omitempty"`
	Duration   float64 `json:"duration_seconds,omitempty"`
}

// ServeLiveAudio runs the socket protocol: binary frames are buffered
// audio, the text frame "flush" forces a final transcript, any other text
// frame is acknowledged and ignored.
func (s *LiveAudioService) ServeLiveAudio(w http.ResponseWriter, r *http.Request, sessionID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("Live audio upgrade failed", zap.Error(err), zap.Uint("sessionId", sessionID))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(liveAudioReadLimit)

	ctx := r.Context()
	var buffer []byte
	var totalBytes int

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Log.Error("Live audio unexpected close", zap.Error(err), zap.Uint("sessionId", sessionID))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			buffer = append(buffer, data...)
			totalBytes += len(data)
			monitoring.AudioBytesReceived.Add(float64(len(data)))

			if len(buffer) >= s.cfg.BufferThresholdBytes {
				text, err := s.transcribe(ctx, buffer)
				buffer = buffer[:0]
				if err != nil {
					logger.Log.Warn("Interim transcription failed", zap.Error(err), zap.Uint("sessionId", sessionID))
					continue
				}
				if err := s.writeFrame(conn, transcriptFrame{Transcript: text, Final: false}); err != nil {
					return
				}
			}

		case websocket.TextMessage:
			if string(data) != "flush" {
				if err := s.writeJSON(conn, map[string]bool{"ack": true}); err != nil {
					return
				}
				continue
			}

			frame := transcriptFrame{Final: true}
			tsStart := float64(totalBytes-len(buffer)) / float64(s.cfg.BytesPerSecond)
			tsEnd := float64(totalBytes) / float64(s.cfg.BytesPerSecond)
			if len(buffer) > 0 {
				frame.Duration = float64(len(buffer)) / float64(s.cfg.BytesPerSecond)
				text, err := s.transcribe(ctx, buffer)
				buffer = buffer[:0]
				if err != nil {
					logger.Log.Error("Final transcription failed", zap.Error(err), zap.Uint("sessionId", sessionID))
					frame.Error = err.Error()
				} else {
					frame.Transcript = text
				}
			}

			if frame.Transcript != "" {
				chunk := &model.TranscriptChunk{
					SessionID: sessionID,
					Text:      frame.Transcript,
					TsStart:   tsStart,
					TsEnd:     tsEnd,
					Source:    model.ChunkSourceLive,
				}
				if err := s.SessionRepo.AddChunk(chunk); err != nil {
					logger.Log.Error("Failed to store live transcript chunk", zap.Error(err), zap.Uint("sessionId", sessionID))
				} else {
					sid := sessionID
					s.Bus.Publish(EventChunkAdded, &sid, "live transcript captured", map[string]interface{}{
						"text":             frame.Transcript,
						"source":           model.ChunkSourceLive,
						"duration_seconds": frame.Duration,
					})
				}
			}

			if err := s.writeFrame(conn, frame); err != nil {
				return
			}
		}
	}
}

func (s *LiveAudioService) transcribe(ctx context.Context, pcm []byte) (string, error) {
	wav := util.WrapPCMAsWAV(pcm, sampleRate, channels, bitsPerSample)

	start := time.Now()
	text, err := s.Transcriber.Transcribe(ctx, wav)
	monitoring.TranscriptionDuration.Observe(time.Since(start).Seconds())

	return text, err
}

func (s *LiveAudioService) writeFrame(conn *websocket.Conn, frame transcriptFrame) error {
	return s.writeJSON(conn, frame)
}

func (s *LiveAudioService) writeJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
