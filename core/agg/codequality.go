package agg

import (
	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/sonar"
	"github.com/huangsam/devhealth/schema"
)

func scoreIndicator(name string, m sonar.Measures, metric string) schema.Indicator {
	return schema.Indicator{Name: name, Value: m[metric], Rating: rating.RatingFromScore(normalizeScore(m[metric]))}
}

// normalizeScore turns "1" into "1.0" so both upstream spellings map.
func normalizeScore(s string) string {
	if len(s) == 1 {
		return s + ".0"
	}
	return s
}

// CodeQualityIndicators rates the Sonar measures of one repository. Without
// a Sonar project the category is empty and rates 0, which drops its weight.
func CodeQualityIndicators(m sonar.Measures, found bool, b contract.RatingBaselines) (schema.TopLevelIndicator, []schema.LanguageShare) {
	if !found {
		return schema.TopLevelIndicator{Name: schema.CategoryCodeQuality}, nil
	}

	coverage, _ := m.Float(sonar.MetricCoverage)
	duplication, _ := m.Float(sonar.MetricDuplication)
	gate := m[sonar.MetricQualityGate]

	tli := category(schema.CategoryCodeQuality, 1,
		scoreIndicator("Reliability", m, sonar.MetricReliability),
		scoreIndicator("Security", m, sonar.MetricSecurity),
		scoreIndicator("Maintainability", m, sonar.MetricMaintainable),
		schema.Indicator{Name: "Quality gate", Value: gate, Rating: rating.QualityGateRating(gate)},
		indicator("Coverage", coverage, rating.Percent(b.LineCoverage)),
		indicator("Duplication", duplication, rating.RemainingFrom(100)),
	)
	return tli, m.Languages()
}
