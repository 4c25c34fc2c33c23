package sheet

import (
	"fmt"
	"sheetcal/internal/models"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// publicValue is the only cell value that marks an event public.
const publicValue = "TRUE"

// MapRow converts one data row to an Event. Dates and times are read as wall
// clock time in loc and stored in UTC. rowNum is the sheet row number and is
// only used for the Event and for error messages.
func MapRow(row []string, rowNum int, loc *time.Location) (models.Event, error) {
	start, err := parseDateTime(row, ColDate, ColStartTime, loc)
	if err != nil {
		return models.Event{}, fmt.Errorf("%w %d: %w", ErrMalformedRow, rowNum, err)
	}
	end, err := parseDateTime(row, ColEndDate, ColEndTime, loc)
	if err != nil {
		return models.Event{}, fmt.Errorf("%w %d: %w", ErrMalformedRow, rowNum, err)
	}

	return models.Event{
		Row:         rowNum,
		Name:        cell(row, ColName),
		Description: cell(row, ColDescription),
		Start:       start,
		End:         end,
		Public:      cell(row, ColPublic) == publicValue,
	}, nil
}

// parseDateTime combines a date column and a 12-hour time column into a UTC instant.
func parseDateTime(row []string, dateCol, timeCol Column, loc *time.Location) (time.Time, error) {
	rawDate := strings.TrimSpace(cell(row, dateCol))
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %q: invalid date %q", dateCol, rawDate)
	}

	clock, err := To24Hour(cell(row, timeCol))
	if err != nil {
		return time.Time{}, fmt.Errorf("column %q: %w", timeCol, err)
	}
	tod, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %q: %w", timeCol, err)
	}

	local := time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), 0, 0, loc)
	if local.Hour() != tod.Hour() || local.Minute() != tod.Minute() {
		// The wall time falls in a DST gap: move it later by the length of the gap.
		local = skipGap(local, time.Date(date.Year(), date.Month(), date.Day(), tod.Hour(), tod.Minute(), 0, 0, time.UTC))
	}
	return local.UTC(), nil
}

// skipGap resolves a wall time that does not exist in its zone. time.Date
// returns one of two instants, one offset either side of the transition; the
// later one is the wall time read with the offset in effect before the gap.
func skipGap(local, wall time.Time) time.Time {
	_, offset := local.Zone()
	if shifted := wall.Add(-time.Duration(offset) * time.Second); shifted.After(local) {
		return shifted
	}
	return local
}
