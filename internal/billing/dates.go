package billing

import (
	"errors"
	"strings"
	"time"
)

var errUnrecognizedDate = errors.New("unrecognized date format")

// zonedLayouts carry their own offset and are converted into the target zone.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// wallClockLayouts are read as local wall-clock time in the target zone.
var wallClockLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"02.01.2006, 15:04:05",
	"02.01.2006, 15:04",
	"02.01.2006",
}

// NormalizeDateKey converts an upstream timestamp into a YYYY-MM-DD key in location.
// Both ISO (YYYY-MM-DD...) and European (DD.MM.YYYY...) forms are accepted.
func NormalizeDateKey(raw string, location *time.Location) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", errUnrecognizedDate
	}
	for _, layout := range zonedLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.In(location).Format("2006-01-02"), nil
		}
	}
	for _, layout := range wallClockLayouts {
		if parsed, err := time.ParseInLocation(layout, value, location); err == nil {
			return parsed.Format("2006-01-02"), nil
		}
	}
	return "", errUnrecognizedDate
}
