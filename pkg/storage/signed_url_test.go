package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Minute)

	token, expiresAt, err := signer.Generate("questions/match/col-a.png")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	key, parsedExp, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "questions/match/col-a.png", key)
	require.WithinDuration(t, expiresAt, parsedExp, time.Second)
}

func TestSignedURLSignerRejectsTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Minute)

	token, _, err := signer.Generate("questions/match/col-b.png")
	require.NoError(t, err)

	_, _, err = signer.Parse(token + "x")
	require.Error(t, err)
}

func TestSignedURLSignerRejectsWrongSecret(t *testing.T) {
	signer := NewSignedURLSigner("secret-one", time.Minute)
	other := NewSignedURLSigner("secret-two", time.Minute)

	token, _, err := signer.Generate("documents/agreement.pdf")
	require.NoError(t, err)

	_, _, err = other.Parse(token)
	require.Error(t, err)
}

func TestSignedURLSignerRejectsExpired(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Minute)
	signer.ttl = -time.Minute

	token, _, err := signer.Generate("questions/img.png")
	require.NoError(t, err)

	_, _, err = signer.Parse(token)
	require.Error(t, err)
}
