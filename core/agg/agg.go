// Package agg reduces raw API data into rated indicators.
package agg

import (
	"math"
	"time"

	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
)

// Window is the lookback window of a run.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the window ending at end and spanning lookback.
func NewWindow(end time.Time, lookback time.Duration) Window {
	return Window{Start: end.Add(-lookback), End: end}
}

// Days is the window length in days.
func (w Window) Days() float64 {
	return contract.DurationDays(w.End.Sub(w.Start))
}

// Before reports whether t falls before the window.
func (w Window) Before(t time.Time) bool {
	return t.Before(w.Start)
}

func indicator(name string, value float64, f rating.Formula) schema.Indicator {
	return schema.Indicator{Name: name, Value: round2(value), Rating: f(value)}
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func category(name schema.Category, count int, indicators ...schema.Indicator) schema.TopLevelIndicator {
	return rating.WithOverallRating(schema.TopLevelIndicator{Name: name, Count: count, Indicators: indicators})
}

// Repo assembles the analysis of one repository from its categories.
func Repo(name, id string, languages []schema.LanguageShare, categories ...schema.TopLevelIndicator) schema.RepoAnalysis {
	return schema.RepoAnalysis{
		Name:       name,
		ID:         id,
		Languages:  languages,
		Indicators: categories,
		Rating:     rating.RepoRating(categories),
	}
}
