package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// MediaDialer opens a dedicated control channel to the media server.
// One client per room; the room session is the sole owner of the handle.
type MediaDialer interface {
	Dial(ctx context.Context) (MediaClient, error)
}

// MediaClient is a dedicated media-server client. Destroy closes the
// control channel and frees every server-side resource created through it.
type MediaClient interface {
	CreatePipeline(ctx context.Context) (MediaPipeline, error)
	Destroy() error
}

// MediaPipeline hosts the endpoints of a single room session.
// It must not be released while endpoints still reference it.
type MediaPipeline interface {
	CreateEndpoint(ctx context.Context) (MediaEndpoint, error)
	Release() error
}

// MediaEndpoint terminates one participant's media.
type MediaEndpoint interface {
	// ProcessOffer feeds an SDP offer and returns the SDP answer.
	ProcessOffer(ctx context.Context, offer string) (string, error)
	AddICECandidate(ctx context.Context, cand webrtc.ICECandidateInit) error
	// GatherCandidates starts ICE gathering; discovered candidates are
	// delivered through the OnICECandidate callback.
	GatherCandidates(ctx context.Context) error
	// Connect wires this endpoint's media into sink.
	Connect(ctx context.Context, sink MediaEndpoint) error
	// OnICECandidate registers the candidate-found listener. Must be set
	// before GatherCandidates; the callback runs on the client's read
	// goroutine and must not block.
	OnICECandidate(fn func(webrtc.ICECandidateInit))
	Release() error
}
