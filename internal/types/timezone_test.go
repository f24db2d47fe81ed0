package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTimezone(t *testing.T) {
	assert.Equal(t, "Europe/Paris", ResolveTimezone("cet"))
	assert.Equal(t, "America/New_York", ResolveTimezone("America/New_York"))
	require.NoError(t, ValidateTimezone("CEST"))
	assert.Error(t, ValidateTimezone("Not/AZone"))
}

func TestStartOfYear(t *testing.T) {
	loc := MustLocation("Europe/Paris")
	// 23:30 UTC on Dec 31st is already Jan 1st in Paris
	ts := time.Date(2025, time.December, 31, 23, 30, 0, 0, time.UTC)
	start := StartOfYear(ts, loc)
	assert.Equal(t, 2026, start.Year())
	assert.Equal(t, time.January, start.Month())
	assert.Equal(t, 1, start.Day())
}

func TestMustLocation_Fallback(t *testing.T) {
	assert.Equal(t, time.UTC, MustLocation("Nowhere/Special"))
}
