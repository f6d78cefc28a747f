package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const DefaultPath = "gosweep.yaml"

type Config struct {
	Difficulty string `yaml:"difficulty"`
	// Zero plays against the elapsed clock
	ChallengeSeconds int   `yaml:"challenge_seconds"`
	Seed             int64 `yaml:"seed"`

	Records RecordsConfig `yaml:"records"`

	SnapshotsDir string `yaml:"snapshots_dir"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type RecordsConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	RedisURL string `yaml:"redis_url"`
	Key      string `yaml:"key"`
	AppName  string `yaml:"app_name"`
}

func Default() Config {
	return Config{
		Difficulty: "beginner",
		Records: RecordsConfig{
			Backend: "file",
			Path:    "minesweeper_records.txt",
			AppName: "gosweep",
		},
		LogLevel:  "warn",
		LogFormat: "text",
	}
}

// Load layers, lowest precedence first: defaults, the YAML file at path, a
// .env file in the working directory, then GOSWEEP_* environment variables.
// A missing file is only an error when a path other than the default was
// asked for.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	setString := func(key string, target *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}

	setString("GOSWEEP_DIFFICULTY", &cfg.Difficulty)
	setString("GOSWEEP_SNAPSHOTS_DIR", &cfg.SnapshotsDir)
	setString("GOSWEEP_LOG_LEVEL", &cfg.LogLevel)
	setString("GOSWEEP_LOG_FORMAT", &cfg.LogFormat)
	setString("GOSWEEP_RECORDS_BACKEND", &cfg.Records.Backend)
	setString("GOSWEEP_RECORDS_PATH", &cfg.Records.Path)
	setString("GOSWEEP_RECORDS_DSN", &cfg.Records.DSN)
	setString("GOSWEEP_REDIS_URL", &cfg.Records.RedisURL)
	setString("GOSWEEP_RECORDS_KEY", &cfg.Records.Key)
	setString("GOSWEEP_APP_NAME", &cfg.Records.AppName)

	if v := strings.TrimSpace(os.Getenv("GOSWEEP_CHALLENGE_SECONDS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GOSWEEP_CHALLENGE_SECONDS: %w", err)
		}
		cfg.ChallengeSeconds = n
	}
	if v := strings.TrimSpace(os.Getenv("GOSWEEP_SEED")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GOSWEEP_SEED: %w", err)
		}
		cfg.Seed = n
	}
	return nil
}
