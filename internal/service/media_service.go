package service

import (
	"context"
	"fmt"
	"noted_backend/internal/model"
	"noted_backend/internal/repository"
	"noted_backend/pkg/logger"
	"os"
	"path/filepath"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// Vision turns a lecture photo into a text description.
type Vision interface {
	AnalyzeImage(ctx context.Context, image []byte, contentType string) (string, error)
}

// MediaService handles session uploads: it stores the original file,
// normalizes audio with ffmpeg for the transcriber and runs images through
// the vision model so their content joins the transcript.
type MediaService struct {
	Storage     *StorageService
	AssetRepo   *repository.AssetRepository
	SessionRepo *repository.SessionRepository
	Transcriber Transcriber
	Vision      Vision
	Bus         *EventBus
}

func NewMediaService(storage *StorageService, assetRepo *repository.AssetRepository, sessionRepo *repository.SessionRepository, transcriber Transcriber, vision Vision, bus *EventBus) *MediaService {
	return &MediaService{
		Storage:     storage,
		AssetRepo:   assetRepo,
		SessionRepo: sessionRepo,
		Transcriber: transcriber,
		Vision:      vision,
		Bus:         bus,
	}
}

// IngestAudio stores the uploaded recording as an asset, transcodes it to
// 16 kHz mono WAV and appends the transcript to the session.
func (s *MediaService) IngestAudio(ctx context.Context, sessionID uint, localPath, filename, contentType string, size int64) (*model.Asset, string, error) {
	objectKey := fmt.Sprintf("sessions/%d/%d_%s", sessionID, time.Now().UnixNano(), filename)

	url, err := s.Storage.UploadFile(ctx, objectKey, localPath, contentType)
	if err != nil {
		return nil, "", err
	}

	asset := &model.Asset{
		SessionID:   &sessionID,
		Kind:        model.AssetKindAudio,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   size,
		URL:         url,
	}
	if err := s.AssetRepo.Create(asset); err != nil {
		return nil, "", err
	}
	s.Bus.Publish(EventAssetUploaded, &sessionID, "asset uploaded", map[string]interface{}{
		"assetId": asset.ID,
		"kind":    asset.Kind,
	})

	wavPath := filepath.Join(os.TempDir(), fmt.Sprintf("noted_%d.wav", time.Now().UnixNano()))
	defer os.Remove(wavPath)

	err = ffmpeg.Input(localPath).
		Output(wavPath, ffmpeg.KwArgs{"ar": sampleRate, "ac": channels, "f": "wav"}).
		OverWriteOutput().
		Run()
	if err != nil {
		return nil, "", fmt.Errorf("audio transcode failed: %w", err)
	}

	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, "", err
	}

	text, err := s.Transcriber.Transcribe(ctx, wav)
	if err != nil {
		return nil, "", err
	}

	if text != "" {
		chunk := &model.TranscriptChunk{
			SessionID: sessionID,
			Text:      text,
			Source:    model.ChunkSourceLive,
		}
		if err := s.SessionRepo.AddChunk(chunk); err != nil {
			logger.Log.Error("Failed to store uploaded transcript", zap.Error(err), zap.Uint("sessionId", sessionID))
		} else {
			s.Bus.Publish(EventChunkAdded, &sessionID, "uploaded audio transcribed", map[string]interface{}{
				"text":    text,
				"source":  model.ChunkSourceLive,
				"assetId": asset.ID,
			})
		}
	}

	return asset, text, nil
}

// IngestAsset stores a non-audio upload (lecture photos, slides) attached
// to the session, optionally pinned to a transcript timestamp.
func (s *MediaService) IngestAsset(ctx context.Context, sessionID uint, localPath, filename, contentType, kind string, size int64, ts *float64) (*model.Asset, error) {
	if kind == "" {
		kind = model.AssetKindImage
	}

	objectKey := fmt.Sprintf("sessions/%d/%d_%s", sessionID, time.Now().UnixNano(), filename)
	url, err := s.Storage.UploadFile(ctx, objectKey, localPath, contentType)
	if err != nil {
		return nil, err
	}

	asset := &model.Asset{
		SessionID:   &sessionID,
		Kind:        kind,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   size,
		URL:         url,
		Ts:          ts,
	}
	if err := s.AssetRepo.Create(asset); err != nil {
		return nil, err
	}

	s.Bus.Publish(EventAssetUploaded, &sessionID, "asset uploaded", map[string]interface{}{
		"assetId": asset.ID,
		"kind":    kind,
	})

	if kind == model.AssetKindImage {
		s.describeImage(ctx, asset, localPath)
	}
	return asset, nil
}

// describeImage runs the vision model over an image upload and appends the
// description to the transcript, pinned to the asset's timestamp. Failures
// only cost the description; the asset is already stored.
func (s *MediaService) describeImage(ctx context.Context, asset *model.Asset, localPath string) {
	if s.Vision == nil || asset.SessionID == nil {
		return
	}

	image, err := os.ReadFile(localPath)
	if err != nil {
		logger.Log.Error("Failed to read image for analysis", zap.Error(err), zap.Uint("assetId", asset.ID))
		return
	}

	text, err := s.Vision.AnalyzeImage(ctx, image, asset.ContentType)
	if err != nil {
		logger.Log.Warn("Image analysis failed", zap.Error(err), zap.Uint("assetId", asset.ID))
		return
	}
	if text == "" {
		return
	}

	chunk := visionChunk(*asset.SessionID, text, asset.Ts)
	if err := s.SessionRepo.AddChunk(chunk); err != nil {
		logger.Log.Error("Failed to store image description", zap.Error(err), zap.Uint("assetId", asset.ID))
		return
	}

	s.Bus.Publish(EventChunkAdded, asset.SessionID, "lecture photo described", map[string]interface{}{
		"text":    text,
		"source":  model.ChunkSourceVision,
		"assetId": asset.ID,
	})
}

// visionChunk builds the transcript entry for an image description. With no
// pin the chunk lands at the transcript origin, like any untimed source.
func visionChunk(sessionID uint, text string, ts *float64) *model.TranscriptChunk {
	chunk := &model.TranscriptChunk{
		SessionID: sessionID,
		Text:      text,
		Source:    model.ChunkSourceVision,
	}
	if ts != nil {
		chunk.TsStart = *ts
		chunk.TsEnd = *ts
	}
	return chunk
}

// SessionAssets lists a session's stored uploads.
func (s *MediaService) SessionAssets(sessionID uint) ([]model.Asset, error) {
	return s.AssetRepo.FindBySession(sessionID)
}
