package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   any
		want time.Time
	}{
		{"2020-01-01T10:15:00", time.Date(2020, 1, 1, 10, 15, 0, 0, time.UTC)},
		{"2020-01-01T10:15", time.Date(2020, 1, 1, 10, 15, 0, 0, time.UTC)},
		{"2020-01-01", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"1/2/2020, 3:04:05 PM", time.Date(2020, 1, 2, 15, 4, 5, 0, time.UTC)},
		{time.Date(2019, 5, 6, 0, 0, 0, 0, time.UTC), time.Date(2019, 5, 6, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.in)
		require.True(t, ok, "%v", tc.in)
		require.True(t, tc.want.Equal(got), "%v: got %v", tc.in, got)
	}

	for _, bad := range []any{nil, "", "   ", "not a date", true} {
		_, ok := ParseDate(bad)
		require.False(t, ok, "%v", bad)
	}
}

func TestParseDateIn_UsesLocationForZonelessValues(t *testing.T) {
	loc := time.FixedZone("X", -7*3600)
	got, ok := ParseDateIn("2020-01-01T10:15", loc)
	require.True(t, ok)
	require.Equal(t, time.Date(2020, 1, 1, 17, 15, 0, 0, time.UTC), got.UTC())
}

func TestSameMinute(t *testing.T) {
	base := time.Date(2020, 1, 1, 10, 15, 0, 0, time.UTC)
	require.True(t, SameMinute(base, base.Add(59*time.Second)))
	require.False(t, SameMinute(base, base.Add(time.Minute)))
}
