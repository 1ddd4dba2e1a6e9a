package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := parseDate("2024-01-31")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC).Equal(got))

	got, err = parseDate("2024-01-31T09:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())

	_, err = parseDate("31/01/2024")
	assert.Error(t, err)
	_, err = parseDate("")
	assert.Error(t, err)
}
