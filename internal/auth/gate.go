package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"clinic-booking-server/internal/utils"
	"clinic-booking-server/pkg/logging"
)

// GateConfig configures a Gate.
type GateConfig struct {
	Secret string
	TTL    time.Duration
	Now    func() time.Time
	Logger *logging.Logger
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Gate is the access gate: a strategy decides who may sign in and the
// session store remembers who did.
type Gate struct {
	strategy Strategy
	sessions SessionStore
	secret   string
	ttl      time.Duration
	now      func() time.Time
	logger   *logging.Logger
}

func NewGate(strategy Strategy, sessions SessionStore, cfg GateConfig) *Gate {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Gate{
		strategy: strategy,
		sessions: sessions,
		secret:   cfg.Secret,
		ttl:      cfg.TTL,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
}

// Strategy reports the configured strategy name.
func (g *Gate) Strategy() string { return g.strategy.Name() }

// Login verifies creds, stores a session marker and returns a signed token.
func (g *Gate) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	identity, err := g.strategy.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			g.logger.Warn("login rejected", "strategy", g.strategy.Name())
		}
		return nil, err
	}

	issued := g.now()
	sess := Session{ID: uuid.NewString(), Identity: identity, ExpiresAt: issued.Add(g.ttl)}
	if err := g.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	token, err := utils.GenerateSessionToken(utils.SessionToken{
		SessionID: sess.ID,
		StaffID:   identity.ID,
		Name:      identity.Name,
		Role:      identity.Role,
		IssuedAt:  issued,
		ExpiresAt: sess.ExpiresAt,
	}, g.secret)
	if err != nil {
		_ = g.sessions.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("auth: %w", err)
	}

	g.logger.Info("staff signed in", "staff_id", identity.ID, "session_id", sess.ID)
	return &LoginResult{Token: token, Identity: identity, ExpiresAt: sess.ExpiresAt}, nil
}

// Check returns the identity behind token when its session is still live.
func (g *Gate) Check(ctx context.Context, token string) (Identity, string, error) {
	claims, err := g.parse(token)
	if err != nil {
		return Identity{}, "", err
	}
	sess, err := g.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return Identity{}, "", err
	}
	return sess.Identity, sess.ID, nil
}

// Logout removes the marker behind token. Unknown or expired sessions are
// already logged out.
func (g *Gate) Logout(ctx context.Context, token string) error {
	claims, err := g.parse(token)
	if err != nil {
		return err
	}
	if err := g.sessions.Delete(ctx, claims.SessionID); err != nil {
		return err
	}
	g.logger.Info("staff signed out", "staff_id", claims.StaffID, "session_id", claims.SessionID)
	return nil
}

func (g *Gate) parse(token string) (*utils.Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := utils.ValidateToken(token, g.secret, jwt.WithTimeFunc(g.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
