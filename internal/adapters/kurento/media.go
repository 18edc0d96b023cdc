package kurento

import (
	"context"

	"github.com/pion/webrtc/v4"

	"github.com/athar-taj/Live-Cogbee/internal/core"
)

// Pipeline is a server-side MediaPipeline handle.
type Pipeline struct {
	c  *Client
	id string
}

// CreateEndpoint builds a WebRtcEndpoint on this pipeline and subscribes it
// to IceCandidateFound events. The candidate listener is attached later via
// OnICECandidate; events arriving before that are dropped.
func (p *Pipeline) CreateEndpoint(ctx context.Context) (core.MediaEndpoint, error) {
	res, err := p.c.call(ctx, "create", map[string]any{
		"type": "WebRtcEndpoint",
		"constructorParams": map[string]any{
			"mediaPipeline": p.id,
		},
	})
	if err != nil {
		return nil, err
	}
	ep := &Endpoint{c: p.c, id: res.Value}
	if _, err := p.c.call(ctx, "subscribe", map[string]any{
		"object": ep.id,
		"type":   "IceCandidateFound",
	}); err != nil {
		_ = ep.Release()
		return nil, err
	}
	return ep, nil
}

func (p *Pipeline) Release() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.c.timeout)
	defer cancel()
	_, err := p.c.call(ctx, "release", map[string]any{"object": p.id})
	return err
}

// Endpoint is a server-side WebRtcEndpoint handle.
type Endpoint struct {
	c  *Client
	id string
}

func (e *Endpoint) ProcessOffer(ctx context.Context, offer string) (string, error) {
	res, err := e.c.call(ctx, "invoke", map[string]any{
		"object":          e.id,
		"operation":       "processOffer",
		"operationParams": map[string]any{"offer": offer},
	})
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

func (e *Endpoint) AddICECandidate(ctx context.Context, cand webrtc.ICECandidateInit) error {
	kc := iceCandidate{
		Module:    "kurento",
		Type:      "IceCandidate",
		Candidate: cand.Candidate,
	}
	if cand.SDPMid != nil {
		kc.SDPMid = *cand.SDPMid
	}
	if cand.SDPMLineIndex != nil {
		kc.SDPMLineIndex = *cand.SDPMLineIndex
	}
	_, err := e.c.call(ctx, "invoke", map[string]any{
		"object":          e.id,
		"operation":       "addIceCandidate",
		"operationParams": map[string]any{"candidate": kc},
	})
	return err
}

func (e *Endpoint) GatherCandidates(ctx context.Context) error {
	_, err := e.c.call(ctx, "invoke", map[string]any{
		"object":    e.id,
		"operation": "gatherCandidates",
	})
	return err
}

func (e *Endpoint) Connect(ctx context.Context, sink core.MediaEndpoint) error {
	other, ok := sink.(*Endpoint)
	if !ok {
		return ErrForeignSink
	}
	_, err := e.c.call(ctx, "invoke", map[string]any{
		"object":          e.id,
		"operation":       "connect",
		"operationParams": map[string]any{"sink": other.id},
	})
	return err
}

func (e *Endpoint) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	e.c.setHandler(e.id, fn)
}

func (e *Endpoint) Release() error {
	e.c.setHandler(e.id, nil)
	ctx, cancel := context.WithTimeout(context.Background(), e.c.timeout)
	defer cancel()
	_, err := e.c.call(ctx, "release", map[string]any{"object": e.id})
	return err
}
