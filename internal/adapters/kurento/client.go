// Package kurento implements the media-server control channel: JSON-RPC 2.0
// over a websocket connection, one dedicated client per room session.
package kurento

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/core"
)

var (
	ErrClosed      = errors.New("kurento: control channel closed")
	ErrForeignSink = errors.New("kurento: sink endpoint belongs to a different client")
)

// Error is a JSON-RPC error returned by the media server.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("kurento: rpc error %d: %s", e.Code, e.Message)
}

// Dialer opens dedicated control channels. Implements core.MediaDialer.
type Dialer struct {
	URL     string
	Timeout time.Duration
}

func (d Dialer) Dial(ctx context.Context) (core.MediaClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("kurento: dial %s: %w", d.URL, err)
	}
	c := &Client{
		conn:     conn,
		timeout:  d.Timeout,
		pending:  make(map[int]chan reply),
		handlers: make(map[string]func(webrtc.ICECandidateInit)),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	log.Info().Str("module", "kurento").Str("url", d.URL).Msg("control channel open")
	return c, nil
}

type request struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type envelope struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      *int            `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

type reply struct {
	result json.RawMessage
	err    error
}

// result shape shared by create / invoke / subscribe.
type opResult struct {
	Value     string `json:"value"`
	SessionID string `json:"sessionId"`
}

// Client is one control channel. Destroy closes the channel, which makes the
// media server release everything created through it.
type Client struct {
	conn    *websocket.Conn
	timeout time.Duration

	writeMu sync.Mutex

	mu        sync.Mutex
	nextID    int
	sessionID string
	pending   map[int]chan reply
	handlers  map[string]func(webrtc.ICECandidateInit)
	closed    bool

	done chan struct{}
}

func (c *Client) readLoop() {
	defer c.shutdown()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				log.Warn().Err(err).Str("module", "kurento").Msg("control channel read error")
			}
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Str("module", "kurento").Msg("malformed server frame")
			continue
		}
		switch {
		case env.ID != nil:
			c.deliver(*env.ID, env)
		case env.Method == "onEvent":
			c.dispatchEvent(env.Params)
		}
	}
}

func (c *Client) deliver(id int, env envelope) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	if env.Error != nil {
		ch <- reply{err: env.Error}
		return
	}
	ch <- reply{result: env.Result}
}

// iceCandidateFound is the payload of a server-side IceCandidateFound event.
type iceCandidateFound struct {
	Value struct {
		Object string `json:"object"`
		Type   string `json:"type"`
		Data   struct {
			Candidate iceCandidate `json:"candidate"`
		} `json:"data"`
	} `json:"value"`
}

type iceCandidate struct {
	Module        string `json:"__module__,omitempty"`
	Type          string `json:"__type__,omitempty"`
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid"`
	SDPMLineIndex uint16 `json:"sdpMLineIndex"`
}

func (c *Client) dispatchEvent(params json.RawMessage) {
	var ev iceCandidateFound
	if err := json.Unmarshal(params, &ev); err != nil {
		log.Warn().Err(err).Str("module", "kurento").Msg("malformed event")
		return
	}
	if ev.Value.Type != "IceCandidateFound" {
		return
	}
	c.mu.Lock()
	fn := c.handlers[ev.Value.Object]
	c.mu.Unlock()
	if fn == nil {
		return
	}
	mid := ev.Value.Data.Candidate.SDPMid
	idx := ev.Value.Data.Candidate.SDPMLineIndex
	fn(webrtc.ICECandidateInit{
		Candidate:     ev.Value.Data.Candidate.Candidate,
		SDPMid:        &mid,
		SDPMLineIndex: &idx,
	})
}

func (c *Client) call(ctx context.Context, method string, params map[string]any) (opResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return opResult{}, ErrClosed
	}
	c.nextID++
	id := c.nextID
	if c.sessionID != "" {
		params["sessionId"] = c.sessionID
	}
	ch := make(chan reply, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	data, err := json.Marshal(request{Jsonrpc: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		c.abandon(id)
		return opResult{}, err
	}

	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	err = c.conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		c.abandon(id)
		return opResult{}, fmt.Errorf("kurento: write %s: %w", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case rep := <-ch:
		if rep.err != nil {
			return opResult{}, rep.err
		}
		var res opResult
		if len(rep.result) > 0 {
			if err := json.Unmarshal(rep.result, &res); err != nil {
				return opResult{}, fmt.Errorf("kurento: decode %s result: %w", method, err)
			}
		}
		if res.SessionID != "" {
			c.mu.Lock()
			c.sessionID = res.SessionID
			c.mu.Unlock()
		}
		return res, nil
	case <-ctx.Done():
		c.abandon(id)
		return opResult{}, ctx.Err()
	case <-timer.C:
		c.abandon(id)
		return opResult{}, fmt.Errorf("kurento: %s timed out after %s", method, c.timeout)
	case <-c.done:
		return opResult{}, ErrClosed
	}
}

func (c *Client) abandon(id int) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	c.pending = make(map[int]chan reply)
	c.mu.Unlock()

	close(c.done)
	_ = c.conn.Close()
	for _, ch := range pending {
		ch <- reply{err: ErrClosed}
	}
}

// CreatePipeline creates the session's MediaPipeline.
func (c *Client) CreatePipeline(ctx context.Context) (core.MediaPipeline, error) {
	res, err := c.call(ctx, "create", map[string]any{
		"type":       "MediaPipeline",
		"properties": map[string]any{},
	})
	if err != nil {
		return nil, err
	}
	return &Pipeline{c: c, id: res.Value}, nil
}

// Destroy closes the control channel. The server garbage-collects every
// object that belonged to this client.
func (c *Client) Destroy() error {
	c.shutdown()
	return nil
}

func (c *Client) setHandler(object string, fn func(webrtc.ICECandidateInit)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		delete(c.handlers, object)
		return
	}
	c.handlers[object] = fn
}
