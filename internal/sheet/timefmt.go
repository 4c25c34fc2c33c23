package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// To24Hour converts a 12-hour clock value such as "2:30 PM" to its 24-hour
// form "14:30". The hour must be 1-12, the minutes two digits and the period
// exactly "AM" or "PM".
func To24Hour(time12 string) (string, error) {
	clock, period, ok := strings.Cut(strings.TrimSpace(time12), " ")
	if !ok {
		return "", fmt.Errorf("%w: %q: missing AM/PM", ErrInvalidTimeFormat, time12)
	}
	hourStr, minute, ok := strings.Cut(clock, ":")
	if !ok {
		return "", fmt.Errorf("%w: %q: missing ':'", ErrInvalidTimeFormat, time12)
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return "", fmt.Errorf("%w: %q: hour must be 1-12", ErrInvalidTimeFormat, time12)
	}
	if len(minute) != 2 || minute[0] < '0' || minute[0] > '5' || minute[1] < '0' || minute[1] > '9' {
		return "", fmt.Errorf("%w: %q: minutes must be 00-59", ErrInvalidTimeFormat, time12)
	}

	switch period {
	case "PM":
		if hour < 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	default:
		return "", fmt.Errorf("%w: %q: period must be AM or PM", ErrInvalidTimeFormat, time12)
	}

	return fmt.Sprintf("%02d:%s", hour, minute), nil
}
