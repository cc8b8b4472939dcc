package agg

import (
	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
)

// deployed maps release environment statuses to whether the deployment succeeded.
// Statuses that never ran are absent.
var deployed = map[string]bool{
	"succeeded":          true,
	"partiallySucceeded": false,
	"rejected":           false,
	"canceled":           false,
}

// ReleaseIndicators rates the releases of a project.
func ReleaseIndicators(releases []azdo.Release, defs []azdo.ReleaseDefinition, w Window, b contract.RatingBaselines) schema.ReleaseAnalysis {
	var attempts, successes int
	for _, r := range releases {
		for _, env := range r.Environments {
			ok, ran := deployed[env.Status]
			if !ran {
				continue
			}
			attempts++
			if ok {
				successes++
			}
		}
	}

	var withApprovals int
	for _, d := range defs {
		if d.HasApprovals() {
			withApprovals++
		}
	}

	tli := category(schema.CategoryReleases, len(releases),
		indicator("Releases per week", ratio(float64(len(releases))*7, w.Days()), rating.Percent(b.ReleasesPerWeek)),
		indicator("Deployment success rate", ratio(float64(successes)*100, float64(attempts)), rating.Percent(b.DeploymentSuccessRate)),
		indicator("Definitions with approvals", ratio(float64(withApprovals)*100, float64(len(defs))), rating.Percent(100)),
	)
	return schema.ReleaseAnalysis{Indicators: []schema.TopLevelIndicator{tli}, Rating: tli.Rating}
}
