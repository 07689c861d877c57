package serializer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/tally/internal/sentinel"
	"github.com/hyp3rd/tally/pkg/distribution"
)

func TestRegistry_Defaults(t *testing.T) {
	registry := NewSerializerRegistry()

	assert.Equal(t, []string{"cbor", "default", "json", "msgpack"}, registry.Names())

	for _, name := range registry.Names() {
		s, err := registry.New(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, s.ContentType(), name)
	}
}

func TestRegistry_Errors(t *testing.T) {
	_, err := New("")
	assert.True(t, errors.Is(err, sentinel.ErrParamCannotBeEmpty))

	_, err = New("yaml")
	assert.True(t, errors.Is(err, sentinel.ErrSerializerNotFound))

	_, err = NewEmptySerializerRegistry().New("default")
	assert.True(t, errors.Is(err, sentinel.ErrSerializerNotFound))
}

func TestRegistry_Register(t *testing.T) {
	registry := NewEmptySerializerRegistry()
	registry.Register("custom", func() ISerializer { return &MsgpackSerializer{} })

	s, err := registry.New("custom")
	require.NoError(t, err)
	assert.IsType(t, &MsgpackSerializer{}, s)
}

func TestJSON_OmitsNonFiniteStatistics(t *testing.T) {
	s, err := New("default")
	require.NoError(t, err)

	data, err := s.Marshal(distribution.Of(3).Summary())
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":1,"min":3,"max":3,"mean":3,"sum":3}`, string(data))

	data, err = s.Marshal(distribution.Empty().Summary())
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":0}`, string(data))
}

func TestBinarySerializers_Decode(t *testing.T) {
	want := distribution.Of(80, 150).Summary()

	for _, name := range []string{"msgpack", "cbor"} {
		t.Run(name, func(t *testing.T) {
			s, err := New(name)
			require.NoError(t, err)

			data, err := s.Marshal(want)
			require.NoError(t, err)

			var got distribution.Summary

			require.NoError(t, s.Unmarshal(data, &got))
			assert.Equal(t, want.Count, got.Count)
			require.NotNil(t, got.StdDev)
			assert.InDelta(t, *want.StdDev, *got.StdDev, 1e-12)
		})
	}
}

func TestUnmarshal_InvalidInput(t *testing.T) {
	for _, name := range []string{"json", "msgpack", "cbor"} {
		s, err := New(name)
		require.NoError(t, err)

		var got distribution.Summary

		assert.Error(t, s.Unmarshal([]byte{0xc1, 0xff, 0x00}, &got), name)
	}
}
