package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// MediaConnection is the local negotiation object behind one PeerLink.
// The hub never sees it; only clients hold media connections.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close()
	// CreateOffer creates a local offer and sets it as the local description.
	CreateOffer() (*webrtc.SessionDescription, error)
	// ApplyOfferAndCreateAnswer sets a remote offer and returns the local answer.
	ApplyOfferAndCreateAnswer(webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	ApplyAnswer(webrtc.SessionDescription) error
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(ctx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver))
	// OnClosed sets a callback that fires once when the connection closes or fails.
	OnClosed(func())
	// AddLocalTrack attaches a local track (microphone, screen) to the connection.
	AddLocalTrack(track webrtc.TrackLocal) (*webrtc.RTPSender, error)
}
