package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Defaults for the optional settings.
const (
	DefaultRange        = "Events"
	DefaultTimezone     = "America/Chicago"
	DefaultCalendarName = "ACM Events"
	DefaultLogLevel     = "info"
)

// Config is the runtime configuration of sheetcal, assembled from flags and
// environment variables.
type Config struct {
	SpreadsheetID string
	Range         string
	// Timezone is the IANA zone the sheet's dates and times are written in.
	Timezone       string
	CalendarName   string
	IncludePrivate bool

	CredentialsFile string
	APIKey          string

	// Output is a file path, empty for stdout.
	Output   string
	LogLevel string
}

// Default returns a Config with every optional setting at its default.
func Default() Config {
	return Config{
		Range:        DefaultRange,
		Timezone:     DefaultTimezone,
		CalendarName: DefaultCalendarName,
		LogLevel:     DefaultLogLevel,
	}
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SpreadsheetID) == "" {
		return fmt.Errorf("%w: spreadsheet ID is required (EVENT_SPREADSHEET_ID)", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Range) == "" {
		return fmt.Errorf("%w: range must not be empty", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Location resolves the source timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid timezone '%s': %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// ParseLevel maps a log level name to a slog.Level. An empty name means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level '%s'", ErrInvalidConfig, level)
	}
}
