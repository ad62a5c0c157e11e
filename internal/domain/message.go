package domain

import (
	"encoding/json"

	"github.com/dkeye/Babel/internal/language"
)

type NegotiationKind string

const (
	KindOffer     NegotiationKind = "offer"
	KindAnswer    NegotiationKind = "answer"
	KindCandidate NegotiationKind = "candidate"
)

func (k NegotiationKind) Valid() bool {
	switch k {
	case KindOffer, KindAnswer, KindCandidate:
		return true
	}
	return false
}

// Envelope is a directed connection-setup message. Payload is relayed
// byte-for-byte and never inspected.
type Envelope struct {
	Kind    NegotiationKind
	Room    RoomID
	From    ParticipantID
	To      ParticipantID
	Payload json.RawMessage
}

// Utterance is one completed unit of recognized speech.
type Utterance struct {
	Room     RoomID
	Source   ParticipantID
	Text     string
	Language language.Code
}
