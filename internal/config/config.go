// Package config loads repoir settings from a YAML file, a .env file and
// REPOIR_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/repoir/internal/store"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "repoir.yaml"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Walk     WalkConfig     `yaml:"walk"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Summary  SummaryConfig  `yaml:"summary"`
	Store    StoreConfig    `yaml:"store"`
	Batch    BatchConfig    `yaml:"batch"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type WalkConfig struct {
	MaxDepth         int   `yaml:"max_depth" validate:"min=1"`
	MaxEntries       int   `yaml:"max_entries" validate:"min=1"`
	MaxFiles         int   `yaml:"max_files" validate:"min=1"`
	MaxFileSize      int64 `yaml:"max_file_size" validate:"min=1"`
	RespectGitignore bool  `yaml:"respect_gitignore"`
}

type PipelineConfig struct {
	Timeout     time.Duration `yaml:"timeout" validate:"min=0"`
	SkipSummary bool          `yaml:"skip_summary"`
}

type SummaryConfig struct {
	Provider  string        `yaml:"provider" validate:"oneof=anthropic openai gemini none"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens" validate:"min=1"`
	Timeout   time.Duration `yaml:"timeout" validate:"min=0"`
	MaxTries  uint          `yaml:"max_tries" validate:"min=1"`
}

type StoreConfig struct {
	Backend  string         `yaml:"backend" validate:"oneof=file s3 postgres memory"`
	Dir      string         `yaml:"dir" validate:"required_if=Backend file"`
	Compress bool           `yaml:"compress"`
	S3       S3Config       `yaml:"s3"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type BatchConfig struct {
	Workers  int    `yaml:"workers" validate:"min=1"`
	ReposDir string `yaml:"repos_dir"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Walk: WalkConfig{
			MaxDepth:         4,
			MaxEntries:       200,
			MaxFiles:         50000,
			MaxFileSize:      1 << 20,
			RespectGitignore: true,
		},
		Pipeline: PipelineConfig{Timeout: 5 * time.Minute},
		Summary: SummaryConfig{
			Provider:  "anthropic",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
			MaxTries:  3,
		},
		Store: StoreConfig{Backend: "file", Dir: "data/repo_irs"},
		Batch: BatchConfig{Workers: runtime.GOMAXPROCS(0), ReposDir: "data/repos"},
	}
}

// Load reads path over the defaults, loads envFile into the process
// environment, applies REPOIR_* overrides and validates the result. A missing
// config file or env file is not an error unless the path was explicit.
func Load(path, envFile string, explicit bool) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StoreOptions maps the store section onto store.Open options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:  c.Store.Backend,
		Dir:      c.Store.Dir,
		Compress: c.Store.Compress,
		S3: store.S3Config{
			Endpoint:  c.Store.S3.Endpoint,
			Region:    c.Store.S3.Region,
			AccessKey: c.Store.S3.AccessKey,
			SecretKey: c.Store.S3.SecretKey,
			Bucket:    c.Store.S3.Bucket,
			Prefix:    c.Store.S3.Prefix,
			UseSSL:    c.Store.S3.UseSSL,
		},
		PostgresDSN: c.Store.Postgres.DSN,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks enum values and bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// applyEnv overrides fields from REPOIR_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("REPOIR_LOG_LEVEL", &cfg.Log.Level)
	str("REPOIR_LOG_FORMAT", &cfg.Log.Format)
	flag("REPOIR_RESPECT_GITIGNORE", &cfg.Walk.RespectGitignore)
	dur("REPOIR_TIMEOUT", &cfg.Pipeline.Timeout)
	flag("REPOIR_SKIP_SUMMARY", &cfg.Pipeline.SkipSummary)
	str("REPOIR_SUMMARY_PROVIDER", &cfg.Summary.Provider)
	str("REPOIR_SUMMARY_MODEL", &cfg.Summary.Model)
	num("REPOIR_SUMMARY_MAX_TOKENS", &cfg.Summary.MaxTokens)
	str("REPOIR_STORE_BACKEND", &cfg.Store.Backend)
	str("REPOIR_STORE_DIR", &cfg.Store.Dir)
	flag("REPOIR_STORE_COMPRESS", &cfg.Store.Compress)
	str("REPOIR_S3_ENDPOINT", &cfg.Store.S3.Endpoint)
	str("REPOIR_S3_REGION", &cfg.Store.S3.Region)
	str("REPOIR_S3_BUCKET", &cfg.Store.S3.Bucket)
	str("REPOIR_S3_PREFIX", &cfg.Store.S3.Prefix)
	str("REPOIR_S3_ACCESS_KEY", &cfg.Store.S3.AccessKey)
	str("REPOIR_S3_SECRET_KEY", &cfg.Store.S3.SecretKey)
	flag("REPOIR_S3_USE_SSL", &cfg.Store.S3.UseSSL)
	str("REPOIR_POSTGRES_DSN", &cfg.Store.Postgres.DSN)
	num("REPOIR_BATCH_WORKERS", &cfg.Batch.Workers)
	str("REPOIR_REPOS_DIR", &cfg.Batch.ReposDir)

	return errors.Join(errs...)
}
