package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"noted_backend/internal/config"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return s.text, s.err
}

func dialLiveAudio(t *testing.T, svc *LiveAudioService) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		svc.ServeLiveAudio(w, r, 1)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func liveAudioConfig() config.LiveAudioConfig {
	return config.LiveAudioConfig{BufferThresholdBytes: 8, BytesPerSecond: 32000}
}

func TestLiveAudioInterimTranscript(t *testing.T) {
	svc := NewLiveAudioService(&stubTranscriber{text: "hello world"}, nil, NewEventBus(), liveAudioConfig())
	conn := dialLiveAudio(t, svc)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 16)))

	var frame transcriptFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "hello world", frame.Transcript)
	assert.False(t, frame.Final)
	assert.Empty(t, frame.Error)
}

func TestLiveAudioBuffersBelowThreshold(t *testing.T) {
	svc := NewLiveAudioService(&stubTranscriber{text: "hello"}, nil, NewEventBus(), liveAudioConfig())
	conn := dialLiveAudio(t, svc)

	// below the threshold nothing is transcribed yet; the next text frame
	// is acknowledged, proving no interim frame was queued before it
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 4)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("keepalive")))

	var ack map[string]bool
	require.NoError(t, conn.ReadJSON(&ack))
	assert.True(t, ack["ack"])
}

func TestLiveAudioFlushEmptyBuffer(t *testing.T) {
	svc := NewLiveAudioService(&stubTranscriber{text: "unused"}, nil, NewEventBus(), liveAudioConfig())
	conn := dialLiveAudio(t, svc)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("flush")))

	var frame transcriptFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.True(t, frame.Final)
	assert.Empty(t, frame.Transcript)
	assert.Zero(t, frame.Duration)
}

func TestLiveAudioFlushReportsProviderFailure(t *testing.T) {
	svc := NewLiveAudioService(&stubTranscriber{err: errors.New("provider down")}, nil, NewEventBus(), liveAudioConfig())
	conn := dialLiveAudio(t, svc)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 4)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("flush")))

	var frame transcriptFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.True(t, frame.Final)
	assert.Empty(t, frame.Transcript)
	assert.Contains(t, frame.Error, "provider down")
	assert.InDelta(t, 4.0/32000.0, frame.Duration, 1e-9)
}

func TestLiveAudioInterimFailureKeepsSocketOpen(t *testing.T) {
	svc := NewLiveAudioService(&stubTranscriber{err: errors.New("provider down")}, nil, NewEventBus(), liveAudioConfig())
	conn := dialLiveAudio(t, svc)

	// interim failure is swallowed; the socket keeps serving
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, make([]byte, 16)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("still there?")))

	var ack map[string]bool
	require.NoError(t, conn.ReadJSON(&ack))
	assert.True(t, ack["ack"])
}
