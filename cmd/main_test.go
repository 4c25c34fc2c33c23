package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sheetcal/internal/config"
	"sheetcal/internal/exporter"
	"sheetcal/internal/ics"
	"sheetcal/internal/sheet"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

type gridSource [][]string

func (g gridSource) Rows(context.Context, string, string) ([][]string, error) {
	return g, nil
}

func testExporter(grid [][]string) *exporter.Exporter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return exporter.New(logger, gridSource(grid), "sheet-123", "Events", time.UTC, ics.NewSerializer("ACM Events"), false)
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ics")
	grid := [][]string{
		sheet.Header[:],
		{"2023-09-01", "2023-09-01", "Friday", "2:00 PM", "3:00 PM", "Meeting", "", "", "", "", "TRUE"},
	}

	require.NoError(t, exportToFile(context.Background(), testExporter(grid), path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "BEGIN:VCALENDAR"))
	assert.Contains(t, string(b), "SUMMARY:Meeting")
}

func TestExportToFileFailureWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ics")
	grid := [][]string{{"Date", "Name"}}

	err := exportToFile(context.Background(), testExporter(grid), path)
	require.ErrorIs(t, err, sheet.ErrSchemaMismatch)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "rows", 3)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "rows=3")
}

// clearConfigEnv unsets every variable the flags read so the host environment
// cannot leak into the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"EVENT_SPREADSHEET_ID", "EVENT_SHEET_RANGE", "SOURCE_TIMEZONE", "CALENDAR_NAME",
		"INCLUDE_PRIVATE", "GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_API_KEY", "OUTPUT_FILE", "LOG_LEVEL",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

// runConfig parses args the way main does and returns the resulting config.
func runConfig(t *testing.T, args ...string) config.Config {
	t.Helper()
	var got config.Config
	capture := func(c *cli.Context) error {
		got = configFromCLI(c)
		return nil
	}
	app := &cli.App{
		Name:     "sheetcal",
		Flags:    sourceFlags(),
		Action:   capture,
		Commands: []*cli.Command{{Name: "export", Action: capture}},
	}
	require.NoError(t, app.Run(append([]string{"sheetcal"}, args...)))
	return got
}

func TestConfigFromCLIDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg := runConfig(t, "--spreadsheet-id", "1AbC")

	want := config.Default()
	want.SpreadsheetID = "1AbC"
	assert.Equal(t, want, cfg)
}

func TestConfigFromCLIFlags(t *testing.T) {
	clearConfigEnv(t)

	cfg := runConfig(t,
		"--spreadsheet-id", "1AbC",
		"--range", "Fall 2024",
		"--timezone", "America/New_York",
		"--calendar-name", "Club Events",
		"--include-private",
		"-o", "events.ics",
		"--log-level", "debug",
		"export",
	)

	assert.Equal(t, "1AbC", cfg.SpreadsheetID)
	assert.Equal(t, "Fall 2024", cfg.Range)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, "Club Events", cfg.CalendarName)
	assert.True(t, cfg.IncludePrivate)
	assert.Equal(t, "events.ics", cfg.Output)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConfigFromCLIEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("EVENT_SPREADSHEET_ID", "from-env")
	t.Setenv("EVENT_SHEET_RANGE", "Spring")
	t.Setenv("INCLUDE_PRIVATE", "true")

	cfg := runConfig(t)

	assert.Equal(t, "from-env", cfg.SpreadsheetID)
	assert.Equal(t, "Spring", cfg.Range)
	assert.True(t, cfg.IncludePrivate)
	assert.Equal(t, config.DefaultTimezone, cfg.Timezone)
}
