package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Auth strategies understood by the access gate.
const (
	AuthStrategyPhrase   = "phrase"
	AuthStrategyPassword = "password"
)

// Mail relays understood by the notifier.
const (
	MailRelaySendGrid = "sendgrid"
	MailRelaySES      = "ses"
	MailRelayLog      = "log"
)

// Config holds all configuration for our application
type Config struct {
	Port        string
	Origin      string
	Environment string
	LogLevel    string
	Database    DatabaseConfig
	LocalStore  LocalStoreConfig
	Auth        AuthConfig
	Redis       RedisConfig
	Mailer      MailerConfig
	Clinic      ClinicConfig
}

// DatabaseConfig holds database connection details. Project is the remote
// backend identifier; an empty value means the server runs on local storage.
type DatabaseConfig struct {
	Project  string
	Host     string
	Port     string
	Username string
	Password string
	DSN      string
}

// LocalStoreConfig holds the fallback file store settings.
type LocalStoreConfig struct {
	Path     string
	SeedDemo bool
}

// AuthConfig holds access gate configuration
type AuthConfig struct {
	Strategy        string
	AccessPhrase    string
	StaffEmail      string
	StaffPassword   string
	StaffName       string
	JWTSecret       string
	SessionTTLHours int
}

// RedisConfig holds the optional session marker store.
type RedisConfig struct {
	Addr     string
	Password string
}

// MailerConfig holds email relay configuration
type MailerConfig struct {
	Relay          string
	SendGridAPIKey string
	FromEmail      string
	FromName       string
	AWSRegion      string
}

// ClinicConfig holds the details printed in notification templates.
type ClinicConfig struct {
	Name    string
	Doctor  string
	Email   string
	Address string
	Phone   string
}

// LiveMode reports whether the remote storage backend is configured.
func (c *Config) LiveMode() bool {
	return strings.TrimSpace(c.Database.Project) != ""
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Project:  getEnv("DB_PROJECT", ""),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
	}
	if dbConfig.Project != "" {
		dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Project)
	}

	sessionTTL, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_HOURS: %w", err)
	}
	if sessionTTL <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL_HOURS: must be positive, got %d", sessionTTL)
	}

	authConfig := AuthConfig{
		Strategy:        strings.ToLower(getEnv("AUTH_STRATEGY", AuthStrategyPhrase)),
		AccessPhrase:    getEnv("ACCESS_PHRASE", ""),
		StaffEmail:      getEnv("STAFF_EMAIL", ""),
		StaffPassword:   getEnv("STAFF_PASSWORD", ""),
		StaffName:       getEnv("STAFF_NAME", "Clinic Doctor"),
		JWTSecret:       getEnv("JWT_SECRET", "default_jwt_secret"),
		SessionTTLHours: sessionTTL,
	}
	switch authConfig.Strategy {
	case AuthStrategyPhrase:
		if authConfig.AccessPhrase == "" {
			return nil, fmt.Errorf("ACCESS_PHRASE is required when AUTH_STRATEGY=%s", AuthStrategyPhrase)
		}
	case AuthStrategyPassword:
		if dbConfig.Project == "" {
			return nil, fmt.Errorf("AUTH_STRATEGY=%s requires DB_PROJECT", AuthStrategyPassword)
		}
	default:
		return nil, fmt.Errorf("invalid AUTH_STRATEGY %q", authConfig.Strategy)
	}

	mailerConfig := MailerConfig{
		Relay:          strings.ToLower(getEnv("MAIL_RELAY", MailRelayLog)),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		FromEmail:      getEnv("MAIL_FROM", "no-reply@localhost"),
		FromName:       getEnv("MAIL_FROM_NAME", "Clinic Appointments"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
	}
	switch mailerConfig.Relay {
	case MailRelaySendGrid, MailRelaySES, MailRelayLog:
	default:
		return nil, fmt.Errorf("invalid MAIL_RELAY %q", mailerConfig.Relay)
	}

	return &Config{
		Port:        getEnv("PORT", "3001"),
		Origin:      getEnv("ORIGIN", "http://localhost:5173"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Database:    dbConfig,
		LocalStore: LocalStoreConfig{
			Path:     getEnv("LOCAL_STORE_PATH", "data/appointments.json"),
			SeedDemo: getEnvAsBool("SEED_DEMO_DATA", true),
		},
		Auth: authConfig,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Mailer: mailerConfig,
		Clinic: ClinicConfig{
			Name:    getEnv("CLINIC_NAME", "SmileFree Orthodontics"),
			Doctor:  getEnv("CLINIC_DOCTOR", "the doctor"),
			Email:   getEnv("CLINIC_EMAIL", ""),
			Address: getEnv("CLINIC_ADDRESS", ""),
			Phone:   getEnv("CLINIC_PHONE", ""),
		},
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
