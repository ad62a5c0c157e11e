package signal

import (
	"encoding/json"
	"fmt"
)

type inbound struct {
	Type string `json:"type"`
}

type joinMsg struct {
	RoomID        string `json:"roomId" validate:"max=64"`
	ParticipantID string `json:"participantId" validate:"max=64"`
	Language      string `json:"language" validate:"omitempty,max=16"`
}

type negotiationMsg struct {
	To      string          `json:"to" validate:"required,max=64"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

type connectedMsg struct {
	Peer string `json:"peer" validate:"required,max=64"`
}

type utteranceMsg struct {
	Text     string `json:"text" validate:"required,max=4000"`
	Language string `json:"language" validate:"omitempty,max=16"`
}

type typeFrame struct {
	Type string `json:"type"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// decode unmarshals data into v and validates it.
func (ctl *SignalWSController) decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := ctl.validate.Struct(v); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
