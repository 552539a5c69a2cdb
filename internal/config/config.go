// Package config loads the server configuration.
//
// Sources, later ones winning:
//
//  1. flag defaults
//  2. the YAML file named by --config, if any
//  3. a .env file in the working directory (never overrides the real
//     environment)
//  4. environment variables: DATABASE_URL, PORT and CARDS_<KEY>
//  5. flags set explicitly on the command line
//
// All keys are flat snake_case ("db_max_conns"); the matching flag uses
// dashes (--db-max-conns) and the matching variable is CARDS_DB_MAX_CONNS.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/glencoden/cards-api/internal/repository"
)

const envPrefix = "CARDS_"

// Config is the validated runtime configuration.
type Config struct {
	// DatabaseURL selects the backend: "sqlite:<path>" for the embedded
	// store, anything else is handed to Postgres.
	DatabaseURL string `koanf:"database_url" validate:"required"`
	Port        int    `koanf:"port" validate:"min=1,max=65535"`

	DBMaxConns         int32         `koanf:"db_max_conns" validate:"min=1"`
	DBMinConns         int32         `koanf:"db_min_conns" validate:"min=0,ltefield=DBMaxConns"`
	DBAcquireTimeout   time.Duration `koanf:"db_acquire_timeout" validate:"min=1ms"`
	DBStatementTimeout time.Duration `koanf:"db_statement_timeout" validate:"min=1ms"`
	DBMaxConnLifetime  time.Duration `koanf:"db_max_conn_lifetime" validate:"min=0"`
	DBMaxConnIdleTime  time.Duration `koanf:"db_max_conn_idle_time" validate:"min=0"`

	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// CORSAllowedOrigins is comma separated; empty disables CORS.
	CORSAllowedOrigins string        `koanf:"cors_allowed_origins"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout" validate:"min=1ms"`
}

// Load reads configuration from args (without the program name), the
// process environment and ./.env.
func Load(args []string) (*Config, error) {
	return load(args, os.Environ, ".env")
}

func load(args []string, environ func() []string, dotenvPath string) (*Config, error) {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if path, _ := flags.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	environment, err := withDotenv(environ(), dotenvPath)
	if err != nil {
		return nil, err
	}
	err = k.Load(env.Provider(".", env.Opt{
		TransformFunc: envKey,
		EnvironFunc:   func() []string { return environment },
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	// Passing k makes posflag fill in defaults only for keys no other source
	// set, while explicitly changed flags always win.
	err = k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
		if f.Name == "config" {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: reading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("cards-api", pflag.ContinueOnError)
	// errors and --help are reported by the caller
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}
	flags.String("config", "", "path to an optional YAML config file")
	flags.String("database-url", "", "postgres://... or sqlite:<path> (env DATABASE_URL)")
	flags.Int("port", 3000, "HTTP listen port (env PORT)")
	flags.Int32("db-max-conns", 10, "maximum open database connections")
	flags.Int32("db-min-conns", 0, "idle connections kept open (postgres)")
	flags.Duration("db-acquire-timeout", 5*time.Second, "wait limit for a free connection")
	flags.Duration("db-statement-timeout", 10*time.Second, "limit for a single statement")
	flags.Duration("db-max-conn-lifetime", time.Hour, "recycle connections older than this")
	flags.Duration("db-max-conn-idle-time", 30*time.Minute, "close connections idle longer than this")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", "text", "text or json")
	flags.String("cors-allowed-origins", "", "comma separated origins; empty disables CORS")
	flags.Duration("shutdown-timeout", 30*time.Second, "grace period for in-flight requests")
	return flags
}

// Usage returns the flag help text.
func Usage() string {
	return newFlagSet().FlagUsages()
}

// envKey maps an environment variable to a config key, or "" to skip it.
func envKey(k, v string) (string, any) {
	switch k {
	case "DATABASE_URL", "PORT":
		return strings.ToLower(k), v
	}
	if rest, ok := strings.CutPrefix(k, envPrefix); ok && rest != "" {
		return strings.ToLower(rest), v
	}
	return "", nil
}

// withDotenv appends the .env entries whose keys are not already set in the
// environment. A missing file is not an error.
func withDotenv(environment []string, path string) ([]string, error) {
	if path == "" {
		return environment, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return environment, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	set := make(map[string]bool, len(environment))
	for _, kv := range environment {
		name, _, _ := strings.Cut(kv, "=")
		set[name] = true
	}

	out := append([]string(nil), environment...)
	for name, value := range vars {
		if !set[name] {
			out = append(out, name+"="+value)
		}
	}
	return out, nil
}

// Pool returns the connection pool settings.
func (c *Config) Pool() repository.PoolConfig {
	return repository.PoolConfig{
		MaxConns:         c.DBMaxConns,
		MinConns:         c.DBMinConns,
		AcquireTimeout:   c.DBAcquireTimeout,
		StatementTimeout: c.DBStatementTimeout,
		MaxConnLifetime:  c.DBMaxConnLifetime,
		MaxConnIdleTime:  c.DBMaxConnIdleTime,
	}
}

// AllowedOrigins splits CORSAllowedOrigins, dropping blanks.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

var kvPassword = regexp.MustCompile(`(password\s*=\s*)('[^']*'|\S+)`)

// RedactedDatabaseURL is DatabaseURL safe for logs.
func (c *Config) RedactedDatabaseURL() string {
	if u, err := url.Parse(c.DatabaseURL); err == nil && u.User != nil {
		return u.Redacted()
	}
	return kvPassword.ReplaceAllString(c.DatabaseURL, "${1}xxxxx")
}
