package timeutil

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"zulu with millis", "2022-10-01T00:00:00.000Z", time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC)},
		{"zulu", "2023-01-15T08:30:00Z", time.Date(2023, 1, 15, 8, 30, 0, 0, time.UTC)},
		{"offset", "2023-01-15T10:30:00+02:00", time.Date(2023, 1, 15, 8, 30, 0, 0, time.UTC)},
		{"no zone", "2023-01-15T08:30:00", time.Date(2023, 1, 15, 8, 30, 0, 0, time.UTC)},
		{"date only", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDateTimeInvalid(t *testing.T) {
	_, err := ParseDateTime("next tuesday")
	assert.Error(t, err)
}

func TestSortKeyOrdersChronologically(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	times := []time.Time{
		time.Date(2023, 1, 1, 0, 30, 0, 0, cet), // 2022-12-31T23:30Z
		time.Date(2022, 12, 31, 23, 45, 0, 0, time.UTC),
		time.Date(2022, 12, 31, 23, 30, 0, 500, time.UTC),
		time.Date(999, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	keys := make([]string, len(times))
	for i, tm := range times {
		keys[i] = SortKey(tm)
	}
	sort.Strings(keys)

	assert.Equal(t, []string{
		"0999-01-01T00:00:00.000000000Z",
		"2022-12-31T23:30:00.000000000Z",
		"2022-12-31T23:30:00.000000500Z",
		"2022-12-31T23:45:00.000000000Z",
	}, keys)
}
