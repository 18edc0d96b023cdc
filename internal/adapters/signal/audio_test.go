package signal

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialAudio(t *testing.T, audio *AudioController, session string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/audio", audio.HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/audio?session=" + session
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestAudio_DrainConcatenatesChunksAndForgets(t *testing.T) {
	req := require.New(t)
	audio := NewAudioController()
	ws := dialAudio(t, audio, "sess-1")

	req.NoError(ws.WriteMessage(websocket.BinaryMessage, []byte("chunk-1,")))
	req.NoError(ws.WriteMessage(websocket.BinaryMessage, []byte{0x00})) // keepalive
	req.NoError(ws.WriteMessage(websocket.BinaryMessage, []byte("chunk-2")))

	req.Eventually(func() bool {
		audio.mu.Lock()
		defer audio.mu.Unlock()
		return len(audio.buffers["sess-1"]) == 2
	}, 2*time.Second, 5*time.Millisecond)

	req.Equal([]byte("chunk-1,chunk-2"), audio.Drain("sess-1"))
	req.Empty(audio.Drain("sess-1"))
}

func TestAudio_SessionsAreIsolated(t *testing.T) {
	req := require.New(t)
	audio := NewAudioController()
	wsA := dialAudio(t, audio, "a")
	wsB := dialAudio(t, audio, "b")

	req.NoError(wsA.WriteMessage(websocket.BinaryMessage, []byte("from-a")))
	req.NoError(wsB.WriteMessage(websocket.BinaryMessage, []byte("from-b")))

	req.Eventually(func() bool {
		audio.mu.Lock()
		defer audio.mu.Unlock()
		return len(audio.buffers["a"]) == 1 && len(audio.buffers["b"]) == 1
	}, 2*time.Second, 5*time.Millisecond)

	req.Equal([]byte("from-a"), audio.Drain("a"))
	req.Equal([]byte("from-b"), audio.Drain("b"))
}
