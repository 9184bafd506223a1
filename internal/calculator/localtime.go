package calculator

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultZone is US Central time, DST aware.
const DefaultZone = "America/Chicago"

// DisplayLayout renders as "YYYY-MM-DD hh:mm AM/PM TZ".
const DisplayLayout = "2006-01-02 03:04 PM MST"

// LoadZone resolves an IANA zone name, falling back to DefaultZone when empty.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}
	return loc, nil
}

// LocalTime interprets epoch seconds as UTC and converts them to loc.
func LocalTime(epoch int64, loc *time.Location) time.Time {
	t := time.Unix(epoch, 0).UTC()
	if loc == nil {
		return t
	}
	return t.In(loc)
}

// FormatLocal formats t with DisplayLayout.
func FormatLocal(t time.Time) string {
	return t.Format(DisplayLayout)
}
