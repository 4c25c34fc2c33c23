package sheet

import (
	"fmt"
	"sheetcal/internal/models"
	"time"
)

// ToEvents validates the header row of grid and maps every following row to
// an Event, in order. The first bad row aborts the whole conversion and no
// events are returned.
func ToEvents(grid [][]string, loc *time.Location) ([]models.Event, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w, aborting: sheet is empty", ErrSchemaMismatch)
	}
	if err := ValidateHeader(grid[0]); err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(grid)-1)
	for i, row := range grid[1:] {
		// Data starts on sheet row 2.
		ev, err := MapRow(row, i+2, loc)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
