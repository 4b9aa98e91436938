package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/freebusy/internal/availability"
)

// Config captures file and environment driven configuration for the
// free-time service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	SessionTTL       time.Duration
	WorkingHours     availability.WorkingHours
	MinSlotDuration  time.Duration
	MaxSuggestions   int
	MaxMeetingLength time.Duration
	RateLimitPerSec  float64
	RateLimitBurst   int
	CacheTTL         time.Duration
	LogLevel         string
}

// fileConfig mirrors the optional YAML configuration file.
type fileConfig struct {
	Server struct {
		Port            int     `yaml:"port"`
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
		RateLimitBurst  int     `yaml:"rate_limit_burst"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Sessions struct {
		TTL string `yaml:"ttl"`
	} `yaml:"sessions"`
	Availability struct {
		WorkingHoursStart       string `yaml:"working_hours_start"`
		WorkingHoursEnd         string `yaml:"working_hours_end"`
		MinSlotMinutes          int    `yaml:"min_slot_minutes"`
		MaxSuggestions          int    `yaml:"max_suggestions"`
		MaxMeetingLengthMinutes int    `yaml:"max_meeting_length_minutes"`
		CacheTTLSeconds         int    `yaml:"cache_ttl_seconds"`
	} `yaml:"availability"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load builds the configuration from defaults, an optional YAML file named by
// FREEBUSY_CONFIG, and FREEBUSY_* environment overrides, in that order of
// precedence.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:freebusy.db?_foreign_keys=on",
		SessionTTL:       24 * time.Hour,
		WorkingHours:     availability.DefaultWorkingHours,
		MinSlotDuration:  availability.DefaultMinSlotDuration,
		MaxSuggestions:   availability.DefaultMaxSuggestions,
		MaxMeetingLength: availability.DefaultMaxMeetingLength,
		RateLimitPerSec:  10,
		RateLimitBurst:   20,
		CacheTTL:         5 * time.Minute,
		LogLevel:         "info",
	}

	invalid := make([]string, 0, 2)

	if path := strings.TrimSpace(os.Getenv("FREEBUSY_CONFIG")); path != "" {
		if err := applyFile(&cfg, path, &invalid); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg, &invalid)

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}
	if cfg.WorkingHours.Start >= cfg.WorkingHours.End {
		return Config{}, errors.New("invalid configuration values: working hours start must precede end")
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string, invalid *[]string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("configuration file %s does not exist", path)
		}
		return err
	}
	defer f.Close()

	var file fileConfig
	if err := yaml.NewDecoder(f).Decode(&file); err != nil {
		return fmt.Errorf("failed to parse configuration file %s: %w", path, err)
	}

	if file.Server.Port > 0 {
		cfg.HTTPPort = file.Server.Port
	}
	if file.Server.RateLimitPerSec > 0 {
		cfg.RateLimitPerSec = file.Server.RateLimitPerSec
	}
	if file.Server.RateLimitBurst > 0 {
		cfg.RateLimitBurst = file.Server.RateLimitBurst
	}
	if dsn := strings.TrimSpace(file.Database.DSN); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if ttlValue := strings.TrimSpace(file.Sessions.TTL); ttlValue != "" {
		if ttl, err := time.ParseDuration(ttlValue); err == nil && ttl > 0 {
			cfg.SessionTTL = ttl
		} else {
			*invalid = append(*invalid, "sessions.ttl")
		}
	}
	if raw := strings.TrimSpace(file.Availability.WorkingHoursStart); raw != "" {
		if offset, err := parseClockOffset(raw); err == nil {
			cfg.WorkingHours.Start = offset
		} else {
			*invalid = append(*invalid, "availability.working_hours_start")
		}
	}
	if raw := strings.TrimSpace(file.Availability.WorkingHoursEnd); raw != "" {
		if offset, err := parseClockOffset(raw); err == nil {
			cfg.WorkingHours.End = offset
		} else {
			*invalid = append(*invalid, "availability.working_hours_end")
		}
	}
	if file.Availability.MinSlotMinutes > 0 {
		cfg.MinSlotDuration = time.Duration(file.Availability.MinSlotMinutes) * time.Minute
	}
	if file.Availability.MaxSuggestions > 0 {
		cfg.MaxSuggestions = file.Availability.MaxSuggestions
	}
	if file.Availability.MaxMeetingLengthMinutes > 0 {
		cfg.MaxMeetingLength = time.Duration(file.Availability.MaxMeetingLengthMinutes) * time.Minute
	}
	if file.Availability.CacheTTLSeconds > 0 {
		cfg.CacheTTL = time.Duration(file.Availability.CacheTTLSeconds) * time.Second
	}
	if level := strings.TrimSpace(file.Logging.Level); level != "" {
		cfg.LogLevel = level
	}
	return nil
}

func applyEnv(cfg *Config, invalid *[]string) {
	if portValue := strings.TrimSpace(os.Getenv("FREEBUSY_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			*invalid = append(*invalid, "FREEBUSY_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("FREEBUSY_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("FREEBUSY_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			*invalid = append(*invalid, "FREEBUSY_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if raw := strings.TrimSpace(os.Getenv("FREEBUSY_WORKING_HOURS_START")); raw != "" {
		if offset, err := parseClockOffset(raw); err == nil {
			cfg.WorkingHours.Start = offset
		} else {
			*invalid = append(*invalid, "FREEBUSY_WORKING_HOURS_START")
		}
	}
	if raw := strings.TrimSpace(os.Getenv("FREEBUSY_WORKING_HOURS_END")); raw != "" {
		if offset, err := parseClockOffset(raw); err == nil {
			cfg.WorkingHours.End = offset
		} else {
			*invalid = append(*invalid, "FREEBUSY_WORKING_HOURS_END")
		}
	}

	if raw := strings.TrimSpace(os.Getenv("FREEBUSY_MIN_SLOT_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			*invalid = append(*invalid, "FREEBUSY_MIN_SLOT_MINUTES")
		} else {
			cfg.MinSlotDuration = time.Duration(minutes) * time.Minute
		}
	}

	if raw := strings.TrimSpace(os.Getenv("FREEBUSY_MAX_SUGGESTIONS")); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil || count <= 0 {
			*invalid = append(*invalid, "FREEBUSY_MAX_SUGGESTIONS")
		} else {
			cfg.MaxSuggestions = count
		}
	}

	if raw := strings.TrimSpace(os.Getenv("FREEBUSY_MAX_MEETING_LENGTH_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			*invalid = append(*invalid, "FREEBUSY_MAX_MEETING_LENGTH_MINUTES")
		} else {
			cfg.MaxMeetingLength = time.Duration(minutes) * time.Minute
		}
	}

	if raw := strings.TrimSpace(os.Getenv("FREEBUSY_RATE_LIMIT_PER_SEC")); raw != "" {
		limit, err := strconv.ParseFloat(raw, 64)
		if err != nil || limit < 0 {
			*invalid = append(*invalid, "FREEBUSY_RATE_LIMIT_PER_SEC")
		} else {
			cfg.RateLimitPerSec = limit
		}
	}

	if raw := strings.TrimSpace(os.Getenv("FREEBUSY_CACHE_TTL")); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			*invalid = append(*invalid, "FREEBUSY_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if level := strings.TrimSpace(os.Getenv("FREEBUSY_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
}

// parseClockOffset converts an "HH:MM" wall clock label into an offset from
// midnight.
func parseClockOffset(raw string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}
