package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sheetcal/internal/caldav"
	"sheetcal/internal/config"
	"sheetcal/internal/exporter"
	"sheetcal/internal/google"
	"sheetcal/internal/ics"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "sheetcal",
		Usage:  "Convert the events spreadsheet into an iCalendar feed.",
		Flags:  sourceFlags(),
		Action: exportAction,
		Commands: []*cli.Command{
			exportCommand(),
			publishCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "spreadsheet-id", EnvVars: []string{"EVENT_SPREADSHEET_ID"}, Usage: "ID of the events spreadsheet (required)."},
		&cli.StringFlag{Name: "range", DefaultText: config.DefaultRange, EnvVars: []string{"EVENT_SHEET_RANGE"}, Usage: "Sheet name or A1 range to read."},
		&cli.StringFlag{Name: "timezone", DefaultText: config.DefaultTimezone, EnvVars: []string{"SOURCE_TIMEZONE"}, Usage: "IANA timezone the sheet's dates and times are written in."},
		&cli.StringFlag{Name: "calendar-name", DefaultText: config.DefaultCalendarName, EnvVars: []string{"CALENDAR_NAME"}, Usage: "Display name of the generated calendar."},
		&cli.BoolFlag{Name: "include-private", EnvVars: []string{"INCLUDE_PRIVATE"}, Usage: "Include events not marked public."},
		&cli.StringFlag{Name: "credentials", EnvVars: []string{"GOOGLE_APPLICATION_CREDENTIALS"}, Usage: "Google service account JSON file."},
		&cli.StringFlag{Name: "api-key", EnvVars: []string{"GOOGLE_API_KEY"}, Usage: "Google API key, for publicly shared sheets."},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, EnvVars: []string{"OUTPUT_FILE"}, Usage: "Write the calendar to this file instead of stdout."},
		&cli.StringFlag{Name: "log-level", DefaultText: config.DefaultLogLevel, EnvVars: []string{"LOG_LEVEL"}, Usage: "debug, info, warn or error."},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:   "export",
		Usage:  "Print the calendar (default when no command is given).",
		Action: exportAction,
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Upload the events to a CalDAV calendar.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "caldav-url", EnvVars: []string{"CALDAV_URL"}, Usage: "CalDAV server endpoint."},
			&cli.StringFlag{Name: "caldav-username", EnvVars: []string{"CALDAV_USERNAME"}},
			&cli.StringFlag{Name: "caldav-password", EnvVars: []string{"CALDAV_PASSWORD"}},
			&cli.StringFlag{Name: "caldav-calendar", EnvVars: []string{"CALDAV_CALENDAR"}, Usage: "Name of the calendar to publish to."},
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be uploaded without making changes."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := load(c)
			if err != nil {
				return err
			}
			if c.String("caldav-url") == "" || c.String("caldav-calendar") == "" {
				return fmt.Errorf("%w: CALDAV_URL and CALDAV_CALENDAR must be set", config.ErrInvalidConfig)
			}

			exp, serializer, err := newExporter(c.Context, cfg, logger)
			if err != nil {
				return err
			}
			events, err := exp.Events(c.Context)
			if err != nil {
				return err
			}

			publisher, err := caldav.NewPublisher(c.Context, logger, c.String("caldav-url"), c.String("caldav-username"), c.String("caldav-password"), c.String("caldav-calendar"), c.Bool("dry-run"))
			if err != nil {
				return fmt.Errorf("failed to create caldav publisher: %w", err)
			}
			return publisher.Publish(c.Context, serializer, events)
		},
	}
}

func exportAction(c *cli.Context) error {
	cfg, logger, err := load(c)
	if err != nil {
		return err
	}

	exp, _, err := newExporter(c.Context, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Output == "" {
		return exp.Export(c.Context, os.Stdout)
	}
	return exportToFile(c.Context, exp, cfg.Output)
}

// exportToFile only creates the file once the calendar was built.
func exportToFile(ctx context.Context, exp *exporter.Exporter, path string) error {
	var doc bytes.Buffer
	if err := exp.Export(ctx, &doc); err != nil {
		return err
	}
	if err := os.WriteFile(path, doc.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Info("Wrote calendar.", "file", path)
	return nil
}

// load assembles and validates the configuration and sets up the logger.
func load(c *cli.Context) (config.Config, *slog.Logger, error) {
	cfg := configFromCLI(c)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	logger := setupLogger(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// configFromCLI starts from the defaults and applies every flag that was set
// on the command line or through its environment variable.
func configFromCLI(c *cli.Context) config.Config {
	cfg := config.Default()
	strs := map[string]*string{
		"spreadsheet-id": &cfg.SpreadsheetID,
		"range":          &cfg.Range,
		"timezone":       &cfg.Timezone,
		"calendar-name":  &cfg.CalendarName,
		"credentials":    &cfg.CredentialsFile,
		"api-key":        &cfg.APIKey,
		"output":         &cfg.Output,
		"log-level":      &cfg.LogLevel,
	}
	for name, field := range strs {
		if c.IsSet(name) {
			*field = c.String(name)
		}
	}
	if c.IsSet("include-private") {
		cfg.IncludePrivate = c.Bool("include-private")
	}
	return cfg
}

func newExporter(ctx context.Context, cfg config.Config, logger *slog.Logger) (*exporter.Exporter, *ics.Serializer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	client, err := google.NewClient(ctx, logger, google.Options{
		CredentialsFile: cfg.CredentialsFile,
		APIKey:          cfg.APIKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create google sheets client: %w", err)
	}

	serializer := ics.NewSerializer(cfg.CalendarName)
	return exporter.New(logger, client, cfg.SpreadsheetID, cfg.Range, loc, serializer, cfg.IncludePrivate), serializer, nil
}

// setupLogger logs to w, which must not be stdout: the calendar is written there.
func setupLogger(level string, w io.Writer) *slog.Logger {
	logLevel, _ := config.ParseLevel(level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}
