package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionErrorDiscriminants(t *testing.T) {
	assert.Equal(t, []byte{0}, Encode(MaximumSessionsReached))
	assert.Equal(t, []byte{1}, Encode(NoSuchSession))
	assert.Equal(t, []byte{2}, Encode(Unauthenticated))

	var e SessionError
	err := Decode([]byte{3}, &e)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "SessionError", de.Type)
}

func TestSessionErrorText(t *testing.T) {
	for _, e := range []SessionError{MaximumSessionsReached, NoSuchSession, Unauthenticated} {
		data, err := json.Marshal(e)
		require.NoError(t, err)
		assert.Equal(t, `"`+e.Name()+`"`, string(data))

		var back SessionError
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, e, back)
	}

	var e SessionError
	err := json.Unmarshal([]byte(`"expired"`), &e)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, sessionErrorNames[:], de.Allowed)

	_, err = json.Marshal(SessionError(9))
	assert.Error(t, err)
}

func TestSessionErrorMessages(t *testing.T) {
	assert.Equal(t, "session.unauthenticated", Unauthenticated.MessageKey())
	assert.Nil(t, Unauthenticated.MessageArgs())
	assert.Equal(t, "user is not authenticated", Unauthenticated.Error())
	assert.Equal(t, "session error 9", SessionError(9).Error())
}

func TestNetworkErrorWireForm(t *testing.T) {
	assert.Equal(t, []byte{0}, Encode(ErrRateLimited))
	assert.Equal(t, []byte{1}, Encode(ErrInvalidMessage))

	socket := Encode(SocketFailure("eof"))
	assert.Equal(t, []byte{2, 0, 0, 0, 3, 'e', 'o', 'f'}, socket)

	var back NetworkError
	require.NoError(t, Decode(socket, &back))
	assert.Equal(t, SocketFailure("eof"), back)

	// detail is dropped for codes that do not carry one
	assert.Equal(t, []byte{0}, Encode(NetworkError{Code: RateLimited, Detail: "ignored"}))

	err := Decode([]byte{3}, &back)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "NetworkError", de.Type)
}

func TestNetworkErrorText(t *testing.T) {
	data, err := json.Marshal(SocketFailure("broken pipe"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"socket","detail":"broken pipe"}`, string(data))

	var back NetworkError
	require.NoError(t, json.Unmarshal([]byte(`{"code":"rate_limited","detail":"x"}`), &back))
	assert.Equal(t, ErrRateLimited, back)

	err = json.Unmarshal([]byte(`{"code":"timeout"}`), &back)
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestNetworkErrorMessages(t *testing.T) {
	assert.Equal(t, "network.invalid_message", ErrInvalidMessage.MessageKey())
	assert.Nil(t, ErrInvalidMessage.MessageArgs())
	assert.Equal(t, []any{"eof"}, SocketFailure("eof").MessageArgs())
	assert.Equal(t, "socket error: eof", SocketFailure("eof").Error())

	var err error = ErrRateLimited
	assert.EqualError(t, err, "user has been rate-limited")
}
