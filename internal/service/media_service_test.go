package service

import (
	"testing"

	"noted_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestVisionChunkPinnedToTimestamp(t *testing.T) {
	ts := 42.5
	chunk := visionChunk(3, "a whiteboard with a force diagram", &ts)

	assert.Equal(t, uint(3), chunk.SessionID)
	assert.Equal(t, "a whiteboard with a force diagram", chunk.Text)
	assert.Equal(t, model.ChunkSourceVision, chunk.Source)
	assert.Equal(t, 42.5, chunk.TsStart)
	assert.Equal(t, 42.5, chunk.TsEnd)
}

func TestVisionChunkWithoutTimestamp(t *testing.T) {
	chunk := visionChunk(3, "a slide", nil)

	assert.Equal(t, model.ChunkSourceVision, chunk.Source)
	assert.Zero(t, chunk.TsStart)
	assert.Zero(t, chunk.TsEnd)
}
