// Package serializer provides the encodings used to export snapshot reports.
//
// The default JSON serializer uses the goccy/go-json library; msgpack and CBOR
// are available for compact transports such as pub/sub channels.
package serializer

import (
	"github.com/goccy/go-json"
	"github.com/hyp3rd/ewrap"
)

// DefaultJSONSerializer encodes values as JSON.
type DefaultJSONSerializer struct{}

// Marshal serializes the given value into a byte slice.
func (*DefaultJSONSerializer) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to marshal json")
	}

	return data, nil
}

// Unmarshal deserializes the given byte slice into the given value.
func (*DefaultJSONSerializer) Unmarshal(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err != nil {
		return ewrap.Wrap(err, "failed to unmarshal json")
	}

	return nil
}

// ContentType returns the JSON media type.
func (*DefaultJSONSerializer) ContentType() string {
	return "application/json"
}
