package timeparse

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ref = time.Date(2024, 6, 1, 8, 15, 0, 0, time.UTC)

func TestParse_ConcreteCases(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"12 hour with space", "9 AM", time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)},
		{"24 hour", "14:00", time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)},
		{"tomorrow prefix", "tomorrow 5pm", time.Date(2024, 6, 2, 17, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input, ref)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}

	t.Run("gibberish is unrecognized", func(t *testing.T) {
		_, err := ParseTime("gibberish", ref)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnrecognized))
	})

	for _, in := range []string{"0 PM", "0am", "00:30 PM", "tomorrow 0pm"} {
		t.Run("zero hour with meridiem "+in, func(t *testing.T) {
			_, err := ParseTime(in, ref)
			assert.ErrorIs(t, err, ErrUnrecognized)
		})
	}

	t.Run("zero hour on a 24 hour clock", func(t *testing.T) {
		got, err := ParseTime("0:30", ref)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Hour())
		assert.Equal(t, 30, got.Minute())
	})
}

func TestParse_TimeOfDayLayouts(t *testing.T) {
	tests := []struct {
		input   string
		hour    int
		minute  int
		pattern string
	}{
		{"9 AM", 9, 0, "h a"},
		{"9 pm", 21, 0, "h a"},
		{"12 AM", 0, 0, "h a"},
		{"12 PM", 12, 0, "h a"},
		{"9am", 9, 0, "ha"},
		{"11PM", 23, 0, "ha"},
		{"9:30 AM", 9, 30, "h:mm a"},
		{"4:45 p.m.", 16, 45, "h:mm a"},
		{"9:30pm", 21, 30, "h:mma"},
		{"9", 9, 0, "H"},
		{"09", 9, 0, "H"},
		{"23", 23, 0, "H"},
		{"14:00", 14, 0, "HH:mm"},
		{"7:05", 7, 5, "HH:mm"},
		{"  10:15  ", 10, 15, "HH:mm"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := Parse(tt.input, ref)
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, r.Pattern)
			assert.False(t, r.Tomorrow)

			y, m, d := r.Time.Date()
			assert.Equal(t, 2024, y)
			assert.Equal(t, time.June, m)
			assert.Equal(t, 1, d)
			assert.Equal(t, tt.hour, r.Time.Hour())
			assert.Equal(t, tt.minute, r.Time.Minute())
			assert.Equal(t, time.UTC, r.Time.Location())
		})
	}
}

func TestParse_ISO(t *testing.T) {
	local := time.FixedZone("UTC-4", -4*3600)
	forms := []struct {
		input   string
		ref     time.Time
		want    time.Time
		pattern string
	}{
		{"2024-06-01T09:00Z", ref, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), "iso8601"},
		{"2024-06-01T09:00+02:00", ref, time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC), "iso8601"},
		{"2024-06-01T09:00:00+0200", ref, time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC), "iso8601"},
		{"2024-06-01T09:00:00-05", ref, time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC), "iso8601"},
		{"2024-06-01T09:00-0530", ref, time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC), "iso8601"},
		{"2024-06-01T09Z", ref, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), "iso8601"},
		{"2024-06-01T09", ref, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), "iso8601-local"},
		{"2024-06-01T09", ref.In(local), time.Date(2024, 6, 1, 9, 0, 0, 0, local), "iso8601-local"},
		{"20240601T090000Z", ref, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC), "iso8601-basic"},
		{"20240601T090000+0200", ref, time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC), "iso8601-basic"},
		{"20240601T0930", ref.In(local), time.Date(2024, 6, 1, 9, 30, 0, 0, local), "iso8601-basic"},
		{"20240601", ref, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), "iso8601-date"},
	}
	for _, tt := range forms {
		t.Run(tt.input, func(t *testing.T) {
			r, err := Parse(tt.input, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, r.Pattern)
			assert.True(t, tt.want.Equal(r.Time), "got %s, want %s", r.Time, tt.want)
		})
	}

	t.Run("offset timestamp keeps the instant", func(t *testing.T) {
		got, err := ParseTime("2024-06-03T09:00:00+02:00", ref)
		require.NoError(t, err)
		assert.True(t, time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC).Equal(got))
	})

	t.Run("fractional seconds", func(t *testing.T) {
		got, err := ParseTime("2024-06-03T09:00:00.250Z", ref)
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, time.Duration(got.Nanosecond()))
	})

	t.Run("zone-less uses the reference location", func(t *testing.T) {
		loc := time.FixedZone("UTC+3", 3*3600)
		got, err := ParseTime("2024-06-03T09:00", ref.In(loc))
		require.NoError(t, err)
		assert.Equal(t, loc, got.Location())
		assert.Equal(t, 9, got.Hour())
	})

	t.Run("date only is midnight", func(t *testing.T) {
		r, err := Parse("2024-06-03", ref)
		require.NoError(t, err)
		assert.Equal(t, "iso8601-date", r.Pattern)
		assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), r.Time)
	})
}

func TestParse_Tomorrow(t *testing.T) {
	inputs := []string{"tomorrow 5pm", "Tomorrow 5 PM", "5pm tomorrow", "tomorrow at 17:00", "TOMORROW 17"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			r, err := Parse(in, ref)
			require.NoError(t, err)
			assert.True(t, r.Tomorrow)
			assert.Equal(t, time.Date(2024, 6, 2, 17, 0, 0, 0, time.UTC), r.Time)
		})
	}

	t.Run("month boundary", func(t *testing.T) {
		got, err := ParseTime("tomorrow 8am", time.Date(2024, 6, 30, 22, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC), got)
	})

	t.Run("tomorrow alone is unrecognized", func(t *testing.T) {
		_, err := Parse("tomorrow", ref)
		assert.ErrorIs(t, err, ErrUnrecognized)
	})
}

func TestParse_Unrecognized(t *testing.T) {
	inputs := []string{"", "   ", "gibberish", "25:00", "13 PM", "9:75", "noonish", "2024-13-01", "next tuesday"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in, ref)
			assert.ErrorIs(t, err, ErrUnrecognized)
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	inputs := []string{
		"9 AM", "9am", "9:30 PM", "9:30pm", "9", "14:00",
		"tomorrow 5pm", "2024-06-03T09:00:00Z", "2024-06-03T09:00", "2024-06-03",
		"2024-06-03T09:00+02:00", "20240603T090000Z",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first, err := Parse(in, ref)
			require.NoError(t, err)

			second, err := Parse(Format(first), ref)
			require.NoError(t, err)
			assert.True(t, first.Time.Equal(second.Time), "%q -> %q", in, Format(first))
			assert.Equal(t, first.Pattern, second.Pattern)
		})
	}
}
