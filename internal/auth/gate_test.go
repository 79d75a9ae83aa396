package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(now *time.Time) *Gate {
	clock := func() time.Time { return *now }
	return NewGate(
		NewPhraseStrategy("open sesame", ""),
		NewMemorySessionStore(clock),
		GateConfig{Secret: "test-secret", TTL: time.Hour, Now: clock, Logger: quietLogger()},
	)
}

func TestGateLoginCheckLogout(t *testing.T) {
	now := time.Now()
	g := newTestGate(&now)
	ctx := context.Background()

	res, err := g.Login(ctx, Credentials{Phrase: "open sesame"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, DoctorIdentity, res.Identity)
	assert.Equal(t, now.Add(time.Hour), res.ExpiresAt)

	id, sid, err := g.Check(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, DoctorIdentity, id)
	assert.NotEmpty(t, sid)

	require.NoError(t, g.Logout(ctx, res.Token))
	_, _, err = g.Check(ctx, res.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGateRejectsBadCredentialsAndTokens(t *testing.T) {
	now := time.Now()
	g := newTestGate(&now)
	ctx := context.Background()

	_, err := g.Login(ctx, Credentials{Phrase: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = g.Check(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = g.Check(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewGate(NewPhraseStrategy("open sesame", ""), NewMemorySessionStore(nil),
		GateConfig{Secret: "other-secret", Logger: quietLogger()})
	res, err := other.Login(ctx, Credentials{Phrase: "open sesame"})
	require.NoError(t, err)
	_, _, err = g.Check(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGateTokenExpires(t *testing.T) {
	now := time.Now()
	g := newTestGate(&now)
	ctx := context.Background()

	res, err := g.Login(ctx, Credentials{Phrase: "open sesame"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, _, err = g.Check(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
