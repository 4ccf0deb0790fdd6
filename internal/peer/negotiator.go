// Package peer holds the client-side negotiation state machine: one PeerLink
// per remote participant in a voice channel.
package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type State int

const (
	Idle State = iota
	AwaitingLocalOffer
	OfferSent
	OfferReceived
	AnswerSent
	Connected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingLocalOffer:
		return "awaiting_local_offer"
	case OfferSent:
		return "offer_sent"
	case OfferReceived:
		return "offer_received"
	case AnswerSent:
		return "answer_sent"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Payload is the negotiation body carried inside a signal envelope.
type Payload struct {
	Type      domain.SignalKind          `json:"type"`
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
	TargetID  domain.UserID              `json:"targetId,omitempty"`
}

// ParsePayload decodes a payload and rejects unknown kinds.
func ParsePayload(raw json.RawMessage) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, errors.Join(core.ErrMalformedMessage, err)
	}
	if !p.Type.Valid() {
		return Payload{}, fmt.Errorf("%w: signal kind %q", core.ErrUnknownMessage, p.Type)
	}
	return p, nil
}

// MediaFactory builds the media connection for a new link. It is the
// place to hook OnTrack.
type MediaFactory func(remote domain.UserID) (core.MediaConnection, error)

// Sender hands an outbound payload to the signaling transport.
type Sender func(Payload) error

type link struct {
	remote domain.UserID
	media  core.MediaConnection
	state  State
}

// Negotiator drives every PeerLink of one local participant in one channel.
type Negotiator struct {
	ctx     context.Context
	self    domain.UserID
	channel domain.ChannelID
	factory MediaFactory
	send    Sender

	mu     sync.Mutex
	links  map[domain.UserID]*link
	tracks []webrtc.TrackLocal
}

func NewNegotiator(ctx context.Context, self domain.UserID, channel domain.ChannelID, factory MediaFactory, send Sender) *Negotiator {
	return &Negotiator{
		ctx:     ctx,
		self:    self,
		channel: channel,
		factory: factory,
		send:    send,
		links:   make(map[domain.UserID]*link),
	}
}

// Ready is the payload a newcomer broadcasts to invite offers.
func (n *Negotiator) Ready() error {
	return n.send(Payload{Type: domain.SignalReady})
}

// HandleEvent applies a relayed signal event. Events for another channel,
// events from ourselves and events targeted at someone else are dropped.
func (n *Negotiator) HandleEvent(ev core.SignalEvent) error {
	if ev.ChannelID != n.channel {
		n.discard(ev.From.ID, "", "other channel")
		return nil
	}
	if ev.From.ID == n.self {
		n.discard(ev.From.ID, "", "self echo")
		return nil
	}
	p, err := ParsePayload(ev.Payload)
	if err != nil {
		return err
	}
	return n.Handle(ev.From.ID, p)
}

func (n *Negotiator) Handle(from domain.UserID, p Payload) error {
	if from == n.self {
		n.discard(from, p.Type, "self echo")
		return nil
	}
	if p.TargetID != "" && p.TargetID != n.self {
		n.discard(from, p.Type, "not addressed to us")
		return nil
	}

	n.mu.Lock()
	reply, err := n.apply(from, p)
	n.mu.Unlock()
	if err != nil || reply == nil {
		return err
	}

	if err := n.send(*reply); err != nil {
		return err
	}
	if reply.Type == domain.SignalAnswer {
		n.answered(from)
	}
	return nil
}

// apply runs with n.mu held and returns the payload to send, if any.
func (n *Negotiator) apply(from domain.UserID, p Payload) (*Payload, error) {
	switch p.Type {
	case domain.SignalReady:
		return n.onReady(from)
	case domain.SignalOffer:
		return n.onOffer(from, p)
	case domain.SignalAnswer:
		return nil, n.onAnswer(from, p)
	case domain.SignalCandidate:
		return nil, n.onCandidate(from, p)
	}
	return nil, fmt.Errorf("%w: signal kind %q", core.ErrUnknownMessage, p.Type)
}

func (n *Negotiator) onReady(from domain.UserID) (*Payload, error) {
	l, ok := n.links[from]
	if !ok {
		var err error
		if l, err = n.newLink(from); err != nil {
			return nil, err
		}
	}
	n.transition(l, AwaitingLocalOffer)
	offer, err := l.media.CreateOffer()
	if err != nil {
		return nil, fmt.Errorf("create offer for %s: %w", from, err)
	}
	n.transition(l, OfferSent)
	return &Payload{Type: domain.SignalOffer, SDP: offer, TargetID: from}, nil
}

func (n *Negotiator) onOffer(from domain.UserID, p Payload) (*Payload, error) {
	if p.SDP == nil {
		return nil, fmt.Errorf("%w: offer without sdp", core.ErrMalformedMessage)
	}
	l, ok := n.links[from]
	if !ok {
		var err error
		if l, err = n.newLink(from); err != nil {
			return nil, err
		}
	}
	n.transition(l, OfferReceived)
	answer, err := l.media.ApplyOfferAndCreateAnswer(*p.SDP)
	if err != nil {
		return nil, fmt.Errorf("answer %s: %w", from, err)
	}
	n.transition(l, AnswerSent)
	return &Payload{Type: domain.SignalAnswer, SDP: answer, TargetID: from}, nil
}

// answered completes the responder side once the answer is on the wire.
func (n *Negotiator) answered(from domain.UserID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if l, ok := n.links[from]; ok && l.state == AnswerSent {
		n.transition(l, Connected)
	}
}

func (n *Negotiator) onAnswer(from domain.UserID, p Payload) error {
	l, ok := n.links[from]
	if !ok {
		n.discard(from, p.Type, "unsolicited answer")
		return nil
	}
	if p.SDP == nil {
		return fmt.Errorf("%w: answer without sdp", core.ErrMalformedMessage)
	}
	if err := l.media.ApplyAnswer(*p.SDP); err != nil {
		return fmt.Errorf("apply answer from %s: %w", from, err)
	}
	n.transition(l, Connected)
	return nil
}

func (n *Negotiator) onCandidate(from domain.UserID, p Payload) error {
	l, ok := n.links[from]
	if !ok {
		n.discard(from, p.Type, "candidate before negotiation")
		return nil
	}
	if p.Candidate == nil {
		return fmt.Errorf("%w: candidate without body", core.ErrMalformedMessage)
	}
	if err := l.media.AddICECandidate(*p.Candidate); err != nil {
		return fmt.Errorf("add candidate from %s: %w", from, err)
	}
	return nil
}

// newLink must be called with n.mu held.
func (n *Negotiator) newLink(remote domain.UserID) (*link, error) {
	media, err := n.factory(remote)
	if err != nil {
		return nil, fmt.Errorf("media for %s: %w", remote, err)
	}
	if err := media.Start(n.ctx); err != nil {
		media.Close()
		return nil, fmt.Errorf("start media for %s: %w", remote, err)
	}
	for _, t := range n.tracks {
		if _, err := media.AddLocalTrack(t); err != nil {
			media.Close()
			return nil, fmt.Errorf("attach %s to %s: %w", t.ID(), remote, err)
		}
	}
	media.OnICECandidate(func(c webrtc.ICECandidateInit) {
		if err := n.send(Payload{Type: domain.SignalCandidate, Candidate: &c, TargetID: remote}); err != nil {
			log.Warn().Err(err).Str("module", "peer").Str("target", string(remote)).Msg("send candidate")
		}
	})
	media.OnClosed(func() { n.dropLink(remote, media) })

	l := &link{remote: remote, media: media, state: Idle}
	n.links[remote] = l
	log.Debug().Str("module", "peer").Str("remote", string(remote)).Str("channel", string(n.channel)).Msg("link created")
	return l, nil
}

// dropLink forgets the link to remote if media still backs it. A later
// ready or offer from remote builds a fresh link.
func (n *Negotiator) dropLink(remote domain.UserID, media core.MediaConnection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.links[remote]
	if !ok || l.media != media {
		return
	}
	delete(n.links, remote)
	log.Info().Str("module", "peer").Str("remote", string(remote)).Str("state", l.state.String()).Msg("link closed")
}

func (n *Negotiator) transition(l *link, to State) {
	log.Debug().
		Str("module", "peer").
		Str("remote", string(l.remote)).
		Str("from", l.state.String()).
		Str("to", to.String()).
		Msg("link state")
	l.state = to
}

func (n *Negotiator) discard(from domain.UserID, kind domain.SignalKind, reason string) {
	log.Debug().
		Str("module", "peer").
		Str("from", string(from)).
		Str("kind", string(kind)).
		Str("reason", reason).
		Msg("signal discarded")
}

// AddLocalTrack attaches track to every existing link and remembers it for
// links created later. Existing links need a fresh offer to carry it.
func (n *Negotiator) AddLocalTrack(track webrtc.TrackLocal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tracks = append(n.tracks, track)
	var errs []error
	for remote, l := range n.links {
		if _, err := l.media.AddLocalTrack(track); err != nil {
			errs = append(errs, fmt.Errorf("attach %s to %s: %w", track.ID(), remote, err))
		}
	}
	return errors.Join(errs...)
}

// State reports the state of the link to remote. Idle with ok=false means
// no link exists.
func (n *Negotiator) State(remote domain.UserID) (State, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	l, ok := n.links[remote]
	if !ok {
		return Idle, false
	}
	return l.state, true
}

func (n *Negotiator) Links() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.links)
}

// Leave closes every link. Local tracks are kept for a later rejoin.
func (n *Negotiator) Leave() {
	n.mu.Lock()
	links := n.links
	n.links = make(map[domain.UserID]*link)
	n.mu.Unlock()

	for _, l := range links {
		l.media.Close()
	}
	log.Info().Str("module", "peer").Str("channel", string(n.channel)).Int("links", len(links)).Msg("left voice")
}
