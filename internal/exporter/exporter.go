package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sheetcal/internal/ics"
	"sheetcal/internal/models"
	"sheetcal/internal/sheet"
	"time"
)

// RowSource provides the raw cell grid of a spreadsheet range.
type RowSource interface {
	Rows(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
}

// Exporter turns the events spreadsheet into a calendar document.
type Exporter struct {
	logger         *slog.Logger
	source         RowSource
	spreadsheetID  string
	readRange      string
	sourceTimeZone *time.Location
	serializer     *ics.Serializer
	includePrivate bool
}

// New creates a new Exporter.
func New(logger *slog.Logger, source RowSource, spreadsheetID, readRange string, tz *time.Location, serializer *ics.Serializer, includePrivate bool) *Exporter {
	return &Exporter{
		logger:         logger,
		source:         source,
		spreadsheetID:  spreadsheetID,
		readRange:      readRange,
		sourceTimeZone: tz,
		serializer:     serializer,
		includePrivate: includePrivate,
	}
}

// Events fetches the sheet and returns the events eligible for publication.
func (e *Exporter) Events(ctx context.Context) ([]models.Event, error) {
	grid, err := e.source.Rows(ctx, e.spreadsheetID, e.readRange)
	if err != nil {
		return nil, err
	}

	events, err := sheet.ToEvents(grid, e.sourceTimeZone)
	if err != nil {
		return nil, err
	}

	included := models.Filter(events, e.includePrivate)
	e.logger.Info("Converted spreadsheet rows to events.", "events", len(events), "included", len(included), "includePrivate", e.includePrivate)
	return included, nil
}

// Export writes the calendar document to w. Nothing is written unless every
// step succeeded.
func (e *Exporter) Export(ctx context.Context, w io.Writer) error {
	events, err := e.Events(ctx)
	if err != nil {
		return err
	}

	doc, err := e.serializer.Serialize(events)
	if err != nil {
		return err
	}

	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	e.logger.Debug("Wrote calendar", "bytes", len(doc))
	return nil
}
