package serializer

import (
	"github.com/hyp3rd/ewrap"
	"github.com/ugorji/go/codec"
)

// CBORSerializer encodes values as CBOR with the ugorji codec.
type CBORSerializer struct {
	handle *codec.CborHandle
}

// NewCBORSerializer returns a CBOR serializer. Times are encoded with the RFC 3339 text tag.
func NewCBORSerializer() *CBORSerializer {
	handle := &codec.CborHandle{}
	handle.TimeRFC3339 = true

	return &CBORSerializer{handle: handle}
}

// Marshal serializes the given value into a byte slice.
func (s *CBORSerializer) Marshal(v any) ([]byte, error) {
	var data []byte

	err := codec.NewEncoderBytes(&data, s.handle).Encode(v)
	if err != nil {
		return nil, ewrap.Wrap(err, "failed to marshal cbor")
	}

	return data, nil
}

// Unmarshal deserializes the given byte slice into the given value.
func (s *CBORSerializer) Unmarshal(data []byte, v any) error {
	err := codec.NewDecoderBytes(data, s.handle).Decode(v)
	if err != nil {
		return ewrap.Wrap(err, "failed to unmarshal cbor")
	}

	return nil
}

// ContentType returns the CBOR media type.
func (*CBORSerializer) ContentType() string {
	return "application/cbor"
}
