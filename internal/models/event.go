package models

import "time"

// Event represents one row of the events spreadsheet.
// This is an internal representation, independent of the sheet layout and of the output format.
type Event struct {
	Row         int       // Sheet row the event was read from (the header is row 1)
	Name        string    // Title of the event
	Description string    // Free-text description, may be empty
	Start       time.Time // Start instant, always in UTC
	End         time.Time // End instant, always in UTC
	Public      bool      // Whether the event may be published
}
