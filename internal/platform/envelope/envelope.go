// Package envelope carries arbitrary registered payloads across a process
// boundary together with the tag needed to rebuild their concrete Go type.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilPayload is returned when Wrap receives nil.
	ErrNilPayload = errors.New("envelope payload is nil")
	// ErrUnregisteredType signals the payload's Go type has no tag in the catalog.
	ErrUnregisteredType = errors.New("payload type is not registered")
	// ErrUnknownType signals the receiving catalog cannot resolve an envelope tag.
	// Sender and receiver disagree on the message catalog; the request must not be retried.
	ErrUnknownType = errors.New("envelope type name is unknown")
	// ErrEncode wraps serialization failures of the payload body.
	ErrEncode = errors.New("encode envelope body")
	// ErrDecode wraps failures decoding the body into the resolved type.
	ErrDecode = errors.New("decode envelope body")
	// ErrMalformedEnvelope signals the outer framing is not a valid envelope.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Envelope is the wire structure exchanged by the bus endpoint.
type Envelope struct {
	Body     string `json:"Body"`
	TypeName string `json:"TypeName"`
}

// ToWireFormat renders the envelope as JSON.
func ToWireFormat(env Envelope) ([]byte, error) {
	if strings.TrimSpace(env.TypeName) == "" {
		return nil, fmt.Errorf("%w: type name is empty", ErrMalformedEnvelope)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

// FromWireFormat parses the outer JSON framing.
func FromWireFormat(data []byte) (Envelope, error) {
	var env Envelope
	if len(data) == 0 {
		return Envelope{}, fmt.Errorf("%w: empty payload", ErrMalformedEnvelope)
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedEnvelope, err)
	}
	if strings.TrimSpace(env.TypeName) == "" {
		return Envelope{}, fmt.Errorf("%w: type name is empty", ErrMalformedEnvelope)
	}
	return env, nil
}

// UnknownTypeError identifies the tag the receiving process could not resolve.
type UnknownTypeError struct {
	TypeName string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownType.Error(), e.TypeName)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }
