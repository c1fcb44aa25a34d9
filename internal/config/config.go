package config

import (
	"errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"strings"
	"time"
)

// Prefix is the prefix of all environment variables the configuration is loaded from
const Prefix = "RESTKIT"

// ErrNoVerifier is returned if neither a JWT secret nor an OIDC provider is configured
var ErrNoVerifier = errors.New("either RESTKIT_JWT_SECRET or RESTKIT_OIDC_PROVIDER_URL has to be set")

// Config represents the application configuration structure
type Config struct {
	Environment string `default:"prod" validate:"oneof=dev prod"`

	ListenAddress string `split_words:"true" default:":8081" validate:"required"`
	BaseAddress   string `split_words:"true" default:"http://localhost:8081" validate:"required,url"`
	AllowedOrigin string `split_words:"true" default:"*" validate:"required"`

	Storage       string        `default:"memory" validate:"oneof=memory postgres"`
	PostgresDSN   string        `envconfig:"POSTGRES_DSN" validate:"required_if=Storage postgres"`
	CacheDisabled bool          `split_words:"true"`
	CacheLifetime time.Duration `split_words:"true" default:"5m" validate:"gt=0"`

	JWTKey      string `envconfig:"JWT_KEY" default:"Authorization" validate:"required"`
	JWTPrefix   string `envconfig:"JWT_PREFIX" default:"JWT"`
	JWTCookie   string `envconfig:"JWT_COOKIE" default:"session_token"`
	JWTSecret   string `envconfig:"JWT_SECRET" validate:"omitempty,min=16"`
	JWTIssuer   string `envconfig:"JWT_ISSUER"`
	JWTAudience string `envconfig:"JWT_AUDIENCE"`

	OIDCProviderURL  string `envconfig:"OIDC_PROVIDER_URL" validate:"omitempty,url"`
	OIDCClientID     string `envconfig:"OIDC_CLIENT_ID" validate:"required_with=OIDCProviderURL"`
	OIDCClientSecret string `envconfig:"OIDC_CLIENT_SECRET" validate:"required_with=OIDCProviderURL"`

	AdminSubjects      []string `split_words:"true"`
	DocumentsSingleton bool     `split_words:"true"`
	DefaultPageSize    int      `split_words:"true" default:"10" validate:"gte=0"`
	MaxPageSize        int      `split_words:"true" default:"1000" validate:"gtefield=DefaultPageSize"`

	MailFrom string `split_words:"true" default:"noreply@restkit.local" validate:"required,email"`
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process(Prefix, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for invalid or missing values
func (config *Config) Validate() error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}
	if config.JWTSecret == "" && config.OIDCProviderURL == "" {
		return ErrNoVerifier
	}
	return nil
}

// IsEnvProduction returns whether the application runs in production mode
func (config *Config) IsEnvProduction() bool {
	return config.Environment == "prod"
}

// IsSecure returns whether the API is served via HTTPS and cookies may thus be marked as secure
func (config *Config) IsSecure() bool {
	return strings.HasPrefix(config.BaseAddress, "https://")
}

// OIDCEnabled returns whether an OpenID Connect provider is configured
func (config *Config) OIDCEnabled() bool {
	return config.OIDCProviderURL != ""
}

// IsAdminSubject returns whether the given token subject is configured to be an administrator
func (config *Config) IsAdminSubject(subject string) bool {
	for _, admin := range config.AdminSubjects {
		if admin == subject {
			return true
		}
	}
	return false
}
