package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrFetchFailure is returned when the spreadsheet could not be read.
var ErrFetchFailure = errors.New("failed to fetch spreadsheet")

// Options selects how the Sheets client authenticates.
// CredentialsFile takes precedence over APIKey; with neither, Application
// Default Credentials are used (GOOGLE_APPLICATION_CREDENTIALS, gcloud, metadata server).
type Options struct {
	CredentialsFile string
	APIKey          string

	// Endpoint overrides the Sheets API base URL and disables authentication.
	Endpoint string
}

// SheetsClient provides read-only access to Google Sheets.
type SheetsClient struct {
	service *sheets.Service
	logger  *slog.Logger
}

// NewClient creates a new Google Sheets client. Credentials that cannot be
// resolved are reported as ErrFetchFailure, since the sheet cannot be read.
func NewClient(ctx context.Context, logger *slog.Logger, opts Options) (*SheetsClient, error) {
	clientOpts, err := clientOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailure, err)
	}

	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create sheets service: %w", ErrFetchFailure, err)
	}

	return &SheetsClient{service: service, logger: logger}, nil
}

// clientOptions resolves credentials into API client options.
func clientOptions(ctx context.Context, opts Options) ([]option.ClientOption, error) {
	switch {
	case opts.Endpoint != "":
		return []option.ClientOption{option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication()}, nil
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read credentials file: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, b, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse credentials file: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil
	case opts.APIKey != "":
		return []option.ClientOption{option.WithAPIKey(opts.APIKey)}, nil
	default:
		creds, err := google.FindDefaultCredentials(ctx, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("no google credentials found, set GOOGLE_APPLICATION_CREDENTIALS or an API key: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil
	}
}

// Rows fetches readRange of the spreadsheet as a grid of cell texts, header row first.
// A sheet without values yields an empty grid.
func (c *SheetsClient) Rows(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	c.logger.Debug("Fetching spreadsheet", "spreadsheetID", spreadsheetID, "range", readRange)

	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w %s (range %q): %w", ErrFetchFailure, spreadsheetID, readRange, err)
	}

	c.logger.Info("Successfully fetched spreadsheet", "rows", len(resp.Values), "spreadsheetID", spreadsheetID)
	return toGrid(resp.Values), nil
}

// toGrid converts the API's untyped cells to strings.
func toGrid(values [][]interface{}) [][]string {
	grid := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, len(row))
		for i, v := range row {
			switch v := v.(type) {
			case nil:
			case string:
				cells[i] = v
			default:
				cells[i] = fmt.Sprint(v)
			}
		}
		grid = append(grid, cells)
	}
	return grid
}
