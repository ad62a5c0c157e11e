package domain

import (
	"encoding/json"

	"github.com/dkeye/Babel/internal/language"
)

type EventType string

const (
	EventJoined      EventType = "joined"
	EventUserJoined  EventType = "user-joined"
	EventUserLeft    EventType = "user-left"
	EventNegotiation EventType = "negotiation"
	EventTranslation EventType = "translation"
)

// Event is anything the core pushes to a participant's transport session.
type Event interface {
	EventType() EventType
}

// Peer is another room member as seen by a newcomer.
type Peer struct {
	ParticipantID ParticipantID `json:"participantId"`
	Language      language.Code `json:"language"`
}

// Joined acknowledges a join to the participant itself, before any
// user-joined event for the same join.
type Joined struct {
	Type          EventType     `json:"type"`
	RoomID        RoomID        `json:"roomId"`
	ParticipantID ParticipantID `json:"participantId"`
	Language      language.Code `json:"language"`
	Participants  []Peer        `json:"participants"`
}

func NewJoined(room RoomID, id ParticipantID, lang language.Code, peers []Peer) Joined {
	if peers == nil {
		peers = []Peer{}
	}
	return Joined{Type: EventJoined, RoomID: room, ParticipantID: id, Language: lang, Participants: peers}
}

func (Joined) EventType() EventType { return EventJoined }

type UserJoined struct {
	Type          EventType     `json:"type"`
	ParticipantID ParticipantID `json:"participantId"`
	Language      language.Code `json:"language"`
	IsInitiator   bool          `json:"isInitiator"`
}

func NewUserJoined(id ParticipantID, lang language.Code, initiator bool) UserJoined {
	return UserJoined{Type: EventUserJoined, ParticipantID: id, Language: lang, IsInitiator: initiator}
}

func (UserJoined) EventType() EventType { return EventUserJoined }

type UserLeft struct {
	Type          EventType     `json:"type"`
	ParticipantID ParticipantID `json:"participantId"`
}

func NewUserLeft(id ParticipantID) UserLeft {
	return UserLeft{Type: EventUserLeft, ParticipantID: id}
}

func (UserLeft) EventType() EventType { return EventUserLeft }

type Negotiation struct {
	Type    EventType       `json:"type"`
	Kind    NegotiationKind `json:"kind"`
	From    ParticipantID   `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

func NewNegotiation(env Envelope) Negotiation {
	return Negotiation{Type: EventNegotiation, Kind: env.Kind, From: env.From, Payload: env.Payload}
}

func (Negotiation) EventType() EventType { return EventNegotiation }

// Translation is one caption delivery, tagged with the speaker.
type Translation struct {
	Type              EventType     `json:"type"`
	SourceParticipant ParticipantID `json:"sourceParticipant"`
	TargetParticipant ParticipantID `json:"targetParticipant"`
	TranslatedText    string        `json:"translatedText"`
	OriginalText      string        `json:"originalText"`
	SourceLanguage    language.Code `json:"sourceLanguage"`
	TargetLanguage    language.Code `json:"targetLanguage"`
}

func NewTranslation(u Utterance, target ParticipantID, targetLang language.Code, text string) Translation {
	return Translation{
		Type:              EventTranslation,
		SourceParticipant: u.Source,
		TargetParticipant: target,
		TranslatedText:    text,
		OriginalText:      u.Text,
		SourceLanguage:    u.Language,
		TargetLanguage:    targetLang,
	}
}

func (Translation) EventType() EventType { return EventTranslation }
