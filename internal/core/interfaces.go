package core

import (
	"errors"
	"time"

	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/language"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_event_sink.go -package=mocks

var (
	ErrBackpressure = errors.New("backpressure")
	ErrSinkClosed   = errors.New("sink closed")
)

// SessionID identifies one transport session (one WebSocket connection).
type SessionID string

// EventSink is the addressable channel of a transport session.
// Owned by the adapter; the core only sends to it or asks it to close.
type EventSink interface {
	Send(domain.Event) error
	Close()
}

// Member is a value snapshot of one participant's registration.
// Holders must re-resolve through the registry instead of caching it.
type Member struct {
	ID       domain.ParticipantID
	Room     domain.RoomID
	Language language.Code
	Session  SessionID
	Sink     EventSink
	JoinedAt time.Time
}

// Outbound is one event addressed to one member.
type Outbound struct {
	To    Member
	Event domain.Event
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.ParticipantID `json:"id"`
	Language language.Code        `json:"language"`
	JoinedAt time.Time            `json:"joinedAt"`
}

func (m Member) DTO() MemberDTO {
	return MemberDTO{ID: m.ID, Language: m.Language, JoinedAt: m.JoinedAt}
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"participantCount"`
	CreatedAt   time.Time     `json:"createdAt"`
}
