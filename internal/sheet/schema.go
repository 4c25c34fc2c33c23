package sheet

import (
	"fmt"
	"strings"
)

// Column identifies a column of the events sheet by its fixed position.
type Column int

// The columns of the events sheet, in order. Only some of them feed an Event,
// the rest must still be present for the header check to pass.
const (
	ColDate Column = iota
	ColEndDate
	ColDayOfWeek
	ColStartTime
	ColEndTime
	ColName
	ColDescription
	ColLocation
	ColDivision
	ColCollaborators
	ColPublic
	numColumns
)

// Header is the first row the events sheet must have.
var Header = [numColumns]string{
	ColDate:          "Date",
	ColEndDate:       "End Date",
	ColDayOfWeek:     "Day of Week",
	ColStartTime:     "Start Time",
	ColEndTime:       "End Time",
	ColName:          "Name",
	ColDescription:   "Description",
	ColLocation:      "Location",
	ColDivision:      "Division",
	ColCollaborators: "Collaborators",
	ColPublic:        "Public",
}

// String returns the column's header name.
func (c Column) String() string {
	if c < 0 || c >= numColumns {
		return fmt.Sprintf("Column(%d)", int(c))
	}
	return Header[c]
}

// ValidateHeader checks that row is exactly the expected header, same length
// and same names in the same order.
func ValidateHeader(row []string) error {
	if len(row) != len(Header) {
		return fmt.Errorf("%w, aborting: %s", ErrSchemaMismatch, strings.Join(row, ","))
	}
	for i, name := range Header {
		if row[i] != name {
			return fmt.Errorf("%w, aborting: %s", ErrSchemaMismatch, strings.Join(row, ","))
		}
	}
	return nil
}

// cell returns the raw value of col in row. The Sheets API drops trailing
// empty cells, so a missing cell reads as "".
func cell(row []string, col Column) string {
	if int(col) >= len(row) {
		return ""
	}
	return row[col]
}
