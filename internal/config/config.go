package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mandalbook/mandalbook/pkg/db"
	"github.com/mandalbook/mandalbook/pkg/logger"
)

var ErrInvalidConfigFile = errors.New("config: invalid config file")

// Config is the full service configuration. Every field resolves from the
// environment; a YAML file may supply values for variables the
// environment does not set.
type Config struct {
	App     AppConfig
	Log     logger.Config
	Sentry  logger.SentryConfig
	DB      db.Config
	Redis   RedisConfig
	Session SessionConfig
	Storage StorageConfig
	Email   EmailConfig
}

type AppConfig struct {
	Name string `env:"APP_NAME" envDefault:"mandalbook"`
	Env  string `env:"APP_ENV" envDefault:"production"`
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// Password for the shared super-admin identity, bcrypt-hashed.
	SuperAdminHash string `env:"SUPER_ADMIN_PASSWORD_HASH,required"`

	// Secret for signing the device cookie, 32+ bytes. Empty leaves the
	// cookie unsigned, which is acceptable for local development only.
	CookieSecret string `env:"COOKIE_SECRET"`

	// SecureCookies marks cookies Secure; enable behind TLS.
	SecureCookies bool `env:"SECURE_COOKIES" envDefault:"false"`
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

type SessionConfig struct {
	// Revalidation cadence and initial hold-off for mounted admin views.
	CheckInterval time.Duration `env:"SESSION_CHECK_INTERVAL" envDefault:"30s"`
	InitialDelay  time.Duration `env:"SESSION_CHECK_INITIAL_DELAY" envDefault:"5s"`

	// Cron expression for the nightly expired-session sweep. The default
	// fires at midnight in the festival timezone.
	SweepSchedule string `env:"SESSION_SWEEP_SCHEDULE" envDefault:"0 0 * * *"`
}

type StorageConfig struct {
	Bucket    string `env:"STORAGE_BUCKET"`
	AccessKey string `env:"STORAGE_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY"`
	Endpoint  string `env:"STORAGE_ENDPOINT"`
	Region    string `env:"STORAGE_REGION" envDefault:"ap-south-1"`
	PublicURL string `env:"STORAGE_PUBLIC_URL"`
	PathStyle bool   `env:"STORAGE_PATH_STYLE" envDefault:"false"`
}

type EmailConfig struct {
	// Resend API key; empty disables outbound email.
	ResendAPIKey string `env:"RESEND_API_KEY"`
	FromAddress  string `env:"EMAIL_FROM" envDefault:"no-reply@mandalbook.app"`
}

// Load resolves configuration from the process environment, optionally
// backed by a YAML file of VAR_NAME: value pairs. Real environment
// variables always win over file values, so deployments override the
// checked-in defaults without editing the file.
func Load(path string) (Config, error) {
	environ := environMap()

	if path != "" {
		fileVars, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		for k, v := range fileVars {
			if _, exists := environ[k]; !exists {
				environ[k] = v
			}
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}

func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	vars := make(map[string]string)
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, errors.Join(ErrInvalidConfigFile, err)
	}
	return vars, nil
}

func environMap() map[string]string {
	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return environ
}
