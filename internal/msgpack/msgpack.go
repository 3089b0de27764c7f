// Package msgpack provides MessagePack encoding for Flight tickets and
// page metadata.
package msgpack

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Decode deserializes MessagePack data into the value pointed to by v.
//
// Example:
//
//	var td flight.TicketData
//	err := msgpack.Decode(ticket, &td)
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return errors.New("empty MessagePack data")
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	return nil
}

// Encode serializes v into MessagePack format.
func Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode MessagePack: %w", err)
	}
	return data, nil
}
