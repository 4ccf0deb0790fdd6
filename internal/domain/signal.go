package domain

import "encoding/json"

type SignalKind string

const (
	SignalReady     SignalKind = "ready"
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
)

func (k SignalKind) Valid() bool {
	switch k {
	case SignalReady, SignalOffer, SignalAnswer, SignalCandidate:
		return true
	}
	return false
}

// SignalEnvelope is a parsed signaling request. Payload is the client's
// payload object passed through byte for byte; From is always stamped by
// the relay from the authenticated connection.
type SignalEnvelope struct {
	Kind      SignalKind
	From      User
	ChannelID ChannelID
	TargetID  UserID
	Payload   json.RawMessage
}
