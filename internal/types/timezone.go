package types

import (
	"strings"
	"time"
)

const DefaultTimezone = "Europe/Paris"

// timezoneAbbreviationMap maps common abbreviations to IANA identifiers
var timezoneAbbreviationMap = map[string]string{
	"CET":  "Europe/Paris",
	"CEST": "Europe/Paris",
	"GMT":  "Europe/London",
	"UTC":  "UTC",
	"WET":  "Europe/Lisbon",
	"EET":  "Europe/Athens",
}

// ResolveTimezone converts a timezone abbreviation to its IANA identifier or returns the input as-is
func ResolveTimezone(timezone string) string {
	if ianaName, exists := timezoneAbbreviationMap[strings.ToUpper(timezone)]; exists {
		return ianaName
	}
	return timezone
}

// ValidateTimezone checks that the timezone can be loaded
func ValidateTimezone(timezone string) error {
	_, err := time.LoadLocation(ResolveTimezone(timezone))
	return err
}

// MustLocation loads timezone, falling back to UTC when it cannot be resolved
func MustLocation(timezone string) *time.Location {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(ResolveTimezone(timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

// StartOfYear returns Jan 1st 00:00 of t's year in loc
func StartOfYear(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, loc)
}
