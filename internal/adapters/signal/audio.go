package signal

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AudioController ingests binary audio chunks over a websocket, one buffer
// per interview session, keyed by the session query parameter. One-byte
// frames are keepalives and are ignored.
type AudioController struct {
	mu      sync.Mutex
	buffers map[string][][]byte
}

func NewAudioController() *AudioController {
	return &AudioController{buffers: make(map[string][][]byte)}
}

func (a *AudioController) HandleWS(c *gin.Context) {
	session := c.Query("session")
	if session == "" {
		log.Warn().Str("module", "signal.audio").Msg("audio stream without session")
		return
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal.audio").Msg("ws upgrade")
		return
	}
	defer ws.Close()

	a.mu.Lock()
	if _, ok := a.buffers[session]; !ok {
		a.buffers[session] = nil
	}
	a.mu.Unlock()
	log.Info().Str("module", "signal.audio").Str("session", session).Msg("audio stream connected")

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.Info().Str("module", "signal.audio").Str("session", session).Msg("audio stream closed")
			return
		}
		if len(data) <= 1 {
			continue
		}
		chunk := append([]byte(nil), data...)
		a.mu.Lock()
		a.buffers[session] = append(a.buffers[session], chunk)
		a.mu.Unlock()
		log.Debug().Str("module", "signal.audio").Str("session", session).Int("bytes", len(chunk)).Msg("chunk received")
	}
}

// Drain returns the concatenated audio of a session and forgets the buffer.
func (a *AudioController) Drain(session string) []byte {
	a.mu.Lock()
	chunks := a.buffers[session]
	delete(a.buffers, session)
	a.mu.Unlock()

	var total int
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
