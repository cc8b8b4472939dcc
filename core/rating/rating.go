// Package rating maps raw indicator values onto 0-100 ratings and combines
// category ratings into an overall repository rating.
package rating

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/huangsam/devhealth/schema"
)

// Formula turns a raw value into a rating in [0,100].
type Formula func(v float64) int

// clamp rounds up into [0,100]. NaN is 0.
func clamp(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	x = math.Ceil(x)
	if x < 0 {
		return 0
	}
	if x > 100 {
		return 100
	}
	return int(x)
}

// Deviation loses reducingFactor points per unit above baseline.
func Deviation(baseline, reducingFactor float64) Formula {
	return func(v float64) int {
		return clamp(100 - (v-baseline)*reducingFactor)
	}
}

// Percent ramps linearly to 100 at baseline.
func Percent(baseline float64) Formula {
	return func(v float64) int {
		return clamp(v * 100 / baseline)
	}
}

// InversePercent is 100 at or below baseline and falls off above it.
// Zero is the best case.
func InversePercent(baseline float64) Formula {
	return func(v float64) int {
		if v == 0 {
			return 100
		}
		return clamp(baseline * 100 / v)
	}
}

// InversePercentWith0AsUnfit is InversePercent where zero means no data.
func InversePercentWith0AsUnfit(baseline float64) Formula {
	return func(v float64) int {
		if v == 0 {
			return 0
		}
		return clamp(baseline * 100 / v)
	}
}

// RemainingFrom rates density metrics such as duplication percent.
func RemainingFrom(baseline float64) Formula {
	return func(v float64) int {
		return clamp(baseline - v)
	}
}

var scoreRatings = map[string]int{
	"1.0": 100,
	"2.0": 74,
	"3.0": 49,
	"4.0": 24,
	"5.0": 0,
}

// RatingFromScore maps a Sonar letter score ("1.0" is A) to a rating.
// Unknown scores are 0.
func RatingFromScore(score string) int {
	return scoreRatings[score]
}

// QualityGateRating maps a Sonar quality gate status to a rating.
func QualityGateRating(status string) int {
	switch status {
	case "ERROR":
		return 0
	case "WARN":
		return 74
	default:
		return 100
	}
}

// WithOverallRating sets the category rating to the rounded mean of its
// indicator ratings. An empty category rates 0.
func WithOverallRating(tli schema.TopLevelIndicator) schema.TopLevelIndicator {
	if len(tli.Indicators) == 0 {
		tli.Rating = 0
		return tli
	}
	var sum float64
	for _, ind := range tli.Indicators {
		sum += float64(schema.RatingOf(ind.Rating))
	}
	tli.Rating = int(math.Round(sum / float64(len(tli.Indicators))))
	return tli
}

// RepoRating is the weighted sum of category ratings. A code quality rating
// of exactly 0 means Sonar had no data, so its weight is spread over the
// other categories.
func RepoRating(categories []schema.TopLevelIndicator) int {
	ratings := make(map[schema.Category]int, len(categories))
	for _, c := range categories {
		ratings[c.Name] = c.Rating
	}
	weights := schema.GetCategoryWeights(ratings[schema.CategoryCodeQuality] != 0)

	var sum float64
	for cat, w := range weights {
		sum += w * float64(ratings[cat])
	}
	return clamp(math.Round(sum))
}

// ProjectRating is the rounded mean of repo ratings.
func ProjectRating(repos []schema.RepoAnalysis) int {
	if len(repos) == 0 {
		return 0
	}
	var sum float64
	for _, r := range repos {
		sum += float64(r.Rating)
	}
	return int(math.Round(sum / float64(len(repos))))
}

// Formula names accepted by ByName.
const (
	NameDeviation             = "deviation"
	NamePercent               = "percent"
	NameInversePercent        = "inverse-percent"
	NameInversePercentUnfit   = "inverse-percent-0-unfit"
	NameRemainingFrom         = "remaining-from"
	defaultDeviationReduction = 10
)

// ByName builds a formula from its name. Factor is only used by deviation,
// where 0 selects the default reducing factor.
func ByName(name string, baseline, factor float64) (Formula, error) {
	switch strings.ToLower(name) {
	case NameDeviation:
		if factor == 0 {
			factor = defaultDeviationReduction
		}
		return Deviation(baseline, factor), nil
	case NamePercent:
		return Percent(baseline), nil
	case NameInversePercent:
		return InversePercent(baseline), nil
	case NameInversePercentUnfit:
		return InversePercentWith0AsUnfit(baseline), nil
	case NameRemainingFrom:
		return RemainingFrom(baseline), nil
	default:
		return nil, fmt.Errorf("unknown formula %q (valid: %s)", name, strings.Join(FormulaNames(), ", "))
	}
}

// FormulaNames lists the names accepted by ByName.
func FormulaNames() []string {
	names := []string{NameDeviation, NamePercent, NameInversePercent, NameInversePercentUnfit, NameRemainingFrom}
	sort.Strings(names)
	return names
}
