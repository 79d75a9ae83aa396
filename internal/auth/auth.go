// Package auth implements the access gate in front of the staff dashboard:
// credential strategies, session markers and signed session tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"clinic-booking-server/internal/models"
	"clinic-booking-server/pkg/logging"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrInvalidToken       = errors.New("invalid session token")
)

// Credentials is whatever the login form submitted. Each strategy reads the
// fields it needs.
type Credentials struct {
	Phrase   string `json:"phrase"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is the authenticated staff member.
type Identity struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email,omitempty"`
	Role  models.Role `json:"role"`
}

// Strategy verifies credentials.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}

// DoctorIdentity is the fixed identity the phrase strategy signs in as.
var DoctorIdentity = Identity{ID: "doctor", Name: "Doctor", Role: models.RoleDoctor}

// PhraseStrategy accepts a single shared access phrase.
type PhraseStrategy struct {
	phrase   []byte
	identity Identity
}

func NewPhraseStrategy(phrase, displayName string) *PhraseStrategy {
	id := DoctorIdentity
	if displayName != "" {
		id.Name = displayName
	}
	return &PhraseStrategy{phrase: []byte(phrase), identity: id}
}

func (s *PhraseStrategy) Name() string { return "phrase" }

func (s *PhraseStrategy) Authenticate(_ context.Context, creds Credentials) (Identity, error) {
	if len(s.phrase) == 0 || subtle.ConstantTimeCompare([]byte(creds.Phrase), s.phrase) != 1 {
		return Identity{}, ErrInvalidCredentials
	}
	return s.identity, nil
}

// PasswordStrategy checks email and password against staff_users rows.
type PasswordStrategy struct {
	db *gorm.DB
}

func NewPasswordStrategy(db *gorm.DB) *PasswordStrategy {
	return &PasswordStrategy{db: db}
}

func (s *PasswordStrategy) Name() string { return "password" }

func (s *PasswordStrategy) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || creds.Password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	var user models.StaffUser
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, fmt.Errorf("auth: lookup staff user: %w", err)
	}
	if !user.CheckPassword(creds.Password) {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}, nil
}

// SeedStaffUser creates the bootstrap staff account when it does not exist.
// An empty email or password is a no-op.
func SeedStaffUser(ctx context.Context, db *gorm.DB, email, password, name string, logger *logging.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.StaffUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("auth: check staff user: %w", err)
	}
	if count > 0 {
		return nil
	}

	user := models.StaffUser{Email: email, Name: name, Role: models.RoleDoctor}
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("auth: hash staff password: %w", err)
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("auth: create staff user: %w", err)
	}
	logger.Info("staff account created", "email", email)
	return nil
}

var (
	_ Strategy = (*PhraseStrategy)(nil)
	_ Strategy = (*PasswordStrategy)(nil)
)
