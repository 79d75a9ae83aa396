package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clinic-booking-server/internal/models"
)

// Claims represents the JWT claims of a staff session.
type Claims struct {
	SessionID string      `json:"sid"`
	StaffID   string      `json:"staff_id"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// SessionToken describes the session a token is issued for.
type SessionToken struct {
	SessionID string
	StaffID   string
	Name      string
	Role      models.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// GenerateSessionToken signs a staff session token with secret.
func GenerateSessionToken(s SessionToken, secret string) (string, error) {
	claims := &Claims{
		SessionID: s.SessionID,
		StaffID:   s.StaffID,
		Name:      s.Name,
		Role:      s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.SessionID,
			Subject:   s.StaffID,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a JWT token.
func ValidateToken(tokenString string, secretKey string, opts ...jwt.ParserOption) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	}, opts...)

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("token has no session id")
	}

	return claims, nil
}
