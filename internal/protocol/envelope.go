// Package protocol defines the wire envelope carried over the data channel.
package protocol

import (
	"encoding/json"
	"errors"
)

var ErrMissingID = errors.New("reliable envelope without id")

// Envelope wraps one frame. Reliable frames carry a sender-generated ID so the
// receiver can suppress transport-level redelivery; plain frames carry only
// the payload. Payload bytes are opaque to this layer.
type Envelope struct {
	ID       string `json:"id,omitempty"`
	Reliable bool   `json:"reliable,omitempty"`
	Data     []byte `json:"data"`
}

func Marshal(e Envelope) ([]byte, error) {
	if e.Reliable && e.ID == "" {
		return nil, ErrMissingID
	}
	return json.Marshal(e)
}

func Unmarshal(raw []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, err
	}
	if e.Reliable && e.ID == "" {
		return Envelope{}, ErrMissingID
	}
	return e, nil
}
