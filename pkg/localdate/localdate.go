// Package localdate provides timezone-pinned calendar date values.
//
// Session expiry in this application is anchored to a fixed reference
// timezone (Indian Standard Time) regardless of where the server or the
// device clock lives. The package isolates that conversion into a small
// pure value type so expiry rules can be tested against fixed fixtures.
package localdate

import (
	"errors"
	"fmt"
	"time"
)

// ErrZoneUnavailable is returned when the IANA timezone database cannot
// produce the requested location. Callers that depend on calendar-day
// comparisons are expected to degrade to rolling-window checks.
var ErrZoneUnavailable = errors.New("localdate: timezone unavailable")

// Load resolves an IANA timezone name.
func Load(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.Join(ErrZoneUnavailable, err)
	}
	return loc, nil
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// At returns the calendar date of t as observed in loc.
func At(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// istOffset is UTC+5:30 in seconds. IST has no daylight saving, so a
// fixed-offset zone is behaviorally identical to the IANA definition.
const istOffset = 5*3600 + 30*60

// IST returns the Indian Standard Time location. It prefers the IANA
// database entry and falls back to a fixed UTC+5:30 zone when the tzdata
// is not present on the host.
func IST() *time.Location {
	if loc, err := Load("Asia/Kolkata"); err == nil {
		return loc
	}
	return time.FixedZone("IST", istOffset)
}
