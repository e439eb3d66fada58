package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	MediaDir     string `env:"MEDIA_DIR,required=true"`
	MediaBaseURL string `env:"MEDIA_BASE_URL,required=true" validate:"url"`

	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true" validate:"min=32"`

	SessionTTL     time.Duration `env:"SESSION_TTL"`
	SearchDebounce time.Duration `env:"SEARCH_DEBOUNCE"`

	// When set, profile and conversation documents live in Firestore
	// instead of the local badger store.
	FirestoreProject string `env:"FIRESTORE_PROJECT"`
}

var validate = validator.New()

// Load reads the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}
