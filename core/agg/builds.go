package agg

import (
	"time"

	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
)

// BuildStats accumulates the builds of one repository.
type BuildStats struct {
	Count           int
	Success         int
	TotalDuration   time.Duration
	LatestSuccessID int
	latestSuccessAt time.Time
}

// Add folds one build into the stats.
func (s *BuildStats) Add(b azdo.Build) {
	s.Count++
	s.TotalDuration += b.Duration()
	if !b.Succeeded() {
		return
	}
	s.Success++
	if s.LatestSuccessID == 0 || b.FinishTime.After(s.latestSuccessAt) {
		s.LatestSuccessID = b.ID
		s.latestSuccessAt = b.FinishTime
	}
}

// SuccessRate is the percentage of succeeded builds.
func (s *BuildStats) SuccessRate() float64 {
	return ratio(float64(s.Success)*100, float64(s.Count))
}

// AverageMinutes is the mean build duration in minutes.
func (s *BuildStats) AverageMinutes() float64 {
	return ratio(s.TotalDuration.Minutes(), float64(s.Count))
}

// AccumulateBuilds groups builds by repository id in one pass.
func AccumulateBuilds(builds []azdo.Build) map[string]*BuildStats {
	stats := make(map[string]*BuildStats)
	for _, b := range builds {
		s, ok := stats[b.Repository.ID]
		if !ok {
			s = &BuildStats{}
			stats[b.Repository.ID] = s
		}
		s.Add(b)
	}
	return stats
}

// BuildIndicators rates the builds of one repository. Nil stats mean no builds.
func BuildIndicators(s *BuildStats, w Window, b contract.RatingBaselines) schema.TopLevelIndicator {
	if s == nil {
		s = &BuildStats{}
	}
	return category(schema.CategoryBuilds, s.Count,
		indicator("Builds per day", ratio(float64(s.Count), w.Days()), rating.Percent(b.DevsPerTeamPerDay)),
		indicator("Success rate", s.SuccessRate(), rating.Percent(b.BuildSuccessRate)),
		indicator("Average duration", s.AverageMinutes(), rating.InversePercentWith0AsUnfit(b.BuildDurationMinutes)),
	)
}
