package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeReliableRoundTrip(t *testing.T) {
	raw, err := Marshal(Envelope{ID: "m1", Reliable: true, Data: []byte("hello")})
	require.NoError(t, err)

	env, err := Unmarshal(raw)
	require.NoError(t, err)
	require.Equal(t, "m1", env.ID)
	require.True(t, env.Reliable)
	require.Equal(t, []byte("hello"), env.Data)
}

func TestEnvelopePlainOmitsIDAndFlag(t *testing.T) {
	raw, err := Marshal(Envelope{Data: []byte{0x01, 0x02}})
	require.NoError(t, err)
	require.NotContains(t, string(raw), "\"id\"")
	require.NotContains(t, string(raw), "\"reliable\"")

	env, err := Unmarshal(raw)
	require.NoError(t, err)
	require.False(t, env.Reliable)
	require.Equal(t, []byte{0x01, 0x02}, env.Data)
}

func TestEnvelopeReliableWithoutID(t *testing.T) {
	_, err := Marshal(Envelope{Reliable: true, Data: []byte("x")})
	require.ErrorIs(t, err, ErrMissingID)

	_, err = Unmarshal([]byte(`{"reliable":true,"data":"eA=="}`))
	require.ErrorIs(t, err, ErrMissingID)
}

func TestEnvelopeBadJSON(t *testing.T) {
	_, err := Unmarshal([]byte("{nope"))
	require.Error(t, err)
}
