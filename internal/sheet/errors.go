package sheet

import "errors"

// Error kinds reported while turning spreadsheet rows into events.
var (
	ErrSchemaMismatch    = errors.New("unexpected header")
	ErrMalformedRow      = errors.New("malformed row")
	ErrInvalidTimeFormat = errors.New("invalid time format")
)
