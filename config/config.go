package config

import (
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-records/auth"
)

// MinSecretLength is the shortest accepted JWT_SECRET, in bytes
const MinSecretLength = 32

// Config is the service configuration, read from the environment
type Config struct {
	DatabaseURL            string        `env:"DATABASE_URL"             envDefault:"sqlite://records.db" json:"database_url"`
	Address                string        `env:"ADDRESS"                  envDefault:"127.0.0.1"           json:"address"`
	Port                   int           `env:"PORT"                     envDefault:"8000"                json:"port"`
	JWTSecret              string        `env:"JWT_SECRET,required,notEmpty"                              json:"jwt_secret"`
	SessionDurationMinutes int64         `env:"SESSION_DURATION_MINUTES" envDefault:"60"                  json:"session_duration_minutes"`
	PhoneRegion            string        `env:"PHONE_REGION"             envDefault:"BR"                  json:"phone_region"`
	Debug                  bool          `env:"DEBUG"                    envDefault:"false"               json:"debug"`
	ShutdownTimeout        time.Duration `env:"SHUTDOWN_TIMEOUT"         envDefault:"10s"                 json:"shutdown_timeout"`
	AutoMigrate            bool          `env:"AUTO_MIGRATE"             envDefault:"true"                json:"auto_migrate"`
}

// Load reads the process environment
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads vars instead of the process environment
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, errors.Wrap(err, errors.CategoryBadInput, "unable to parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the values the environment parser can not
func (c Config) Validate() error {
	verr := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&c,
			validation.Field(&c.JWTSecret, validation.Required, validation.Length(MinSecretLength, 0)),
			validation.Field(&c.SessionDurationMinutes, validation.Required, validation.Min(int64(1)), validation.Max(auth.MaxSessionDurationMinutes)),
			validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
		)
	}, "invalid configuration")

	if verr != nil {
		return verr
	}
	return nil
}

// Policy builds the session policy from the secret and duration
func (c Config) Policy() (auth.Policy, error) {
	return auth.NewPolicy([]byte(c.JWTSecret), c.SessionDurationMinutes)
}

// ListenAddr is the host:port the HTTP server binds to
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// Redacted returns a copy safe to print
func (c Config) Redacted() Config {
	if c.JWTSecret != "" {
		c.JWTSecret = "[REDACTED]"
	}
	return c
}
