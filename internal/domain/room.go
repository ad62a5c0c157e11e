// Package domain contains the identifiers and transient messages the
// coordinator passes around. No transport or lifecycle logic here.
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const MaxIDLen = 64

var (
	ErrIDEmpty   = errors.New("id empty")
	ErrIDTooLong = errors.New("id too long")
)

type (
	RoomID        string
	ParticipantID string
)

// NewRoomID generates an id for callers that did not supply one.
func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

// ParseRoomID trims and validates an externally supplied room id.
func ParseRoomID(raw string) (RoomID, error) {
	s, err := parseID(raw)
	return RoomID(s), err
}

func ParseParticipantID(raw string) (ParticipantID, error) {
	s, err := parseID(raw)
	return ParticipantID(s), err
}

func parseID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrIDEmpty
	}
	if len(s) > MaxIDLen {
		return "", ErrIDTooLong
	}
	return s, nil
}
