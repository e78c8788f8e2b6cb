package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings stint needs to reach the time-tracking API.
type Config struct {
	APIURL         string
	APIToken       string
	OrganizationID uuid.UUID
	PageSize       int
	PollWait       time.Duration
	LogFile        string
	LogLevel       slog.Level
}

const (
	defaultConfigPath = "~/.config/stint/config.toml"
	defaultLogFile    = "~/.local/state/stint/stint.log"
	defaultPageSize   = 15
	defaultPollWait   = 25 * time.Second
	defaultLogLevel   = "info"

	envAPIURL   = "STINT_API_URL"
	envAPIToken = "STINT_API_TOKEN"
	envOrg      = "STINT_ORGANIZATION_ID"
	envLogLevel = "STINT_LOG_LEVEL"
)

type fileConfig struct {
	APIURL          string `toml:"api_url"`
	APIToken        string `toml:"api_token"`
	OrganizationID  string `toml:"organization_id"`
	PageSize        *int   `toml:"page_size"`
	PollWaitSeconds *int   `toml:"poll_wait_seconds"`
	LogFile         string `toml:"log_file"`
	LogLevel        string `toml:"log_level"`
}

// Load locates and parses the stint config, falling back to defaults when
// missing. Environment variables override file values.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&raw)

	cfg := Config{
		APIURL:   strings.TrimSpace(raw.APIURL),
		APIToken: strings.TrimSpace(raw.APIToken),
		PageSize: defaultPageSize,
		PollWait: defaultPollWait,
	}

	if org := strings.TrimSpace(raw.OrganizationID); org != "" {
		id, err := uuid.Parse(org)
		if err != nil {
			return Config{}, fmt.Errorf("parse organization_id: %w", err)
		}
		cfg.OrganizationID = id
	}

	if raw.PageSize != nil {
		if *raw.PageSize <= 0 {
			return Config{}, fmt.Errorf("page_size must be positive, got %d", *raw.PageSize)
		}
		cfg.PageSize = *raw.PageSize
	}

	if raw.PollWaitSeconds != nil {
		if *raw.PollWaitSeconds < 0 {
			return Config{}, fmt.Errorf("poll_wait_seconds must not be negative, got %d", *raw.PollWaitSeconds)
		}
		cfg.PollWait = time.Duration(*raw.PollWaitSeconds) * time.Second
	}

	logFile := strings.TrimSpace(raw.LogFile)
	if logFile == "" {
		logFile = defaultLogFile
	}
	cfg.LogFile = mustExpand(logFile)

	level := strings.TrimSpace(raw.LogLevel)
	if level == "" {
		level = defaultLogLevel
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
		return Config{}, fmt.Errorf("parse log_level: %w", err)
	}

	return cfg, nil
}

// Validate reports settings that must be present before talking to the API.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is not set (config file or %s)", envAPIURL)
	}
	if c.APIToken == "" {
		return fmt.Errorf("api_token is not set (config file or %s)", envAPIToken)
	}
	return nil
}

func readFile(path string) (fileConfig, error) {
	var raw fileConfig

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

func applyEnv(raw *fileConfig) {
	if v, ok := os.LookupEnv(envAPIURL); ok {
		raw.APIURL = v
	}
	if v, ok := os.LookupEnv(envAPIToken); ok {
		raw.APIToken = v
	}
	if v, ok := os.LookupEnv(envOrg); ok {
		raw.OrganizationID = v
	}
	if v, ok := os.LookupEnv(envLogLevel); ok {
		raw.LogLevel = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
