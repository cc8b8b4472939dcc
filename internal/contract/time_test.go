package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLookbackDuration covers various valid and invalid lookback strings,
// including singular/plural forms and the month/year approximations.
func TestParseLookbackDuration(t *testing.T) {
	const day = 24 * time.Hour

	tests := []struct {
		input       string
		expected    time.Duration
		expectError bool
	}{
		{input: "90 days", expected: 90 * day},
		{input: "1 Day", expected: day},
		{input: "2 weeks", expected: 14 * day},
		{input: "3 months", expected: 90 * day},
		{input: "1 year", expected: 365 * day},
		{input: "6 hours", expected: 6 * time.Hour},
		{input: "45 minutes", expected: 45 * time.Minute},
		{input: "24h", expected: 24 * time.Hour},
		{input: "  1h30m ", expected: 90 * time.Minute},
		{input: "0 days", expectError: true},
		{input: "0s", expectError: true},
		{input: "-2h", expectError: true},
		{input: "two days", expectError: true},
		{input: "5 decades", expectError: true},
		{input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLookbackDuration(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDurationDays(t *testing.T) {
	assert.Equal(t, 90.0, DurationDays(90*24*time.Hour))
	assert.Equal(t, 0.5, DurationDays(12*time.Hour))
}

// FuzzParseLookbackDuration checks that any accepted input yields a positive duration.
func FuzzParseLookbackDuration(f *testing.F) {
	for _, seed := range []string{"90 days", "1 week", "720h", "0 days", "abc", "99999999999 years"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		d, err := ParseLookbackDuration(s)
		if err == nil && d <= 0 {
			t.Errorf("ParseLookbackDuration(%q) = %v, want positive", s, d)
		}
	})
}
