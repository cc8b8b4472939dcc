package rating

import (
	"testing"
)

// FuzzRatingBounds checks every formula stays within [0,100].
func FuzzRatingBounds(f *testing.F) {
	f.Add(5.0, 10.0, 8.0)
	f.Add(0.0, 0.0, 0.0)
	f.Add(3.0, 1.0, 2.375)
	f.Add(-1.0, -5.0, 1e308)
	f.Add(1e-300, 1e300, -1e-300)

	f.Fuzz(func(t *testing.T, baseline, factor, value float64) {
		formulas := map[string]Formula{
			"deviation":      Deviation(baseline, factor),
			"percent":        Percent(baseline),
			"inverse":        InversePercent(baseline),
			"inverse-unfit":  InversePercentWith0AsUnfit(baseline),
			"remaining-from": RemainingFrom(baseline),
		}
		for name, fn := range formulas {
			if r := fn(value); r < 0 || r > 100 {
				t.Fatalf("%s(%v, %v)(%v) = %d out of bounds", name, baseline, factor, value, r)
			}
		}
	})
}
