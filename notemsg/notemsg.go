// Package notemsg contains the message types pianos exchange in a shared
// session.
package notemsg

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type (
	MsgType   int
	NoteState int

	Envelope struct {
		// Message identifier
		ID uuid.UUID `json:"id"`
		// NoteMsg | HelloMsg
		Typ MsgType `json:"type"`
		// Client identifier
		UserID uuid.UUID `json:"userId"`
		// Actual message data.
		Payload json.RawMessage `json:"payload"`
	}

	NoteMsg struct {
		State NoteState `json:"state"`
		// MIDI Note # in "C3 Convention", C3 = 60. Available values: (0-127)
		Number int `json:"number"`
		// MIDI Velocity (0-127)
		Velocity int `json:"velocity"`
	}

	HelloMsg struct {
		UserID   uuid.UUID `json:"userId"`
		UserName string    `json:"userName"`
	}
)

const (
	NOTE MsgType = iota
	HELLO
)

const (
	NOTE_OFF NoteState = iota
	NOTE_ON
)

func (e *Envelope) SetPayload(payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	e.Payload = p
	return nil
}

func (e *Envelope) Unwrap(msg any) error {
	return json.Unmarshal(e.Payload, msg)
}

func (t *MsgType) UnmarshalJSON(data []byte) error {
	var rawType string
	err := json.Unmarshal(data, &rawType)
	if err != nil {
		return err
	}

	switch rawType {
	case "note":
		*t = NOTE
	case "hello":
		*t = HELLO
	default:
		return fmt.Errorf("unknown type: %s", rawType)
	}
	return nil
}

// MarshalJSON is on the value receiver so envelopes encode the same whether
// written by value or by pointer.
func (t MsgType) MarshalJSON() ([]byte, error) {
	switch t {
	case NOTE:
		return []byte(`"note"`), nil
	case HELLO:
		return []byte(`"hello"`), nil
	}
	return []byte{}, fmt.Errorf("unknown MsgTyp value: %d", t)
}
