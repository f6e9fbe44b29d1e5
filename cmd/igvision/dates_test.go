package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeRange(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	tr, err := timeRange("", "", loc)
	require.NoError(t, err)
	assert.True(t, tr.Since.IsZero())
	assert.True(t, tr.Until.IsZero())

	tr, err = timeRange("2023-01-01", "2023-12-31", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, loc), tr.Since)
	assert.Equal(t, time.Date(2023, 12, 31, 23, 59, 59, 999999999, loc), tr.Until)

	tr, err = timeRange("", "2023-06-01 12:00:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 12, 0, 0, 0, loc), tr.Until)

	tr, err = timeRange("2023-06-01T10:00:00Z", "", loc)
	require.NoError(t, err)
	assert.True(t, tr.Since.Equal(time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)))
}

func TestTimeRangeErrors(t *testing.T) {
	_, err := timeRange("yesterday", "", time.UTC)
	assert.ErrorContains(t, err, "--since")

	_, err = timeRange("", "31/12/2023", time.UTC)
	assert.ErrorContains(t, err, "--until")

	_, err = timeRange("2024-01-01", "2023-01-01", time.UTC)
	assert.ErrorContains(t, err, "before")
}
