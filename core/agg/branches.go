package agg

import (
	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/schema"
)

// requiredPolicyKinds is the number of blocking policy kinds that rate 100.
const requiredPolicyKinds = 3

// BranchIndicators rates the branches of one repository. A branch is stale
// when its tip commit predates the window, and abandoned when it is stale
// and still ahead of the default branch.
func BranchIndicators(branches []azdo.BranchStat, policyKinds []azdo.PolicyKind, w Window) schema.TopLevelIndicator {
	var stale, abandoned int
	for _, br := range branches {
		if br.IsBaseVersion {
			continue
		}
		if w.Before(br.Commit.Committer.Date) {
			stale++
			if br.AheadCount > 0 {
				abandoned++
			}
		}
	}

	policies := schema.Indicator{
		Name:            "Default branch policies",
		Value:           len(policyKinds),
		Rating:          rating.Percent(requiredPolicyKinds)(float64(len(policyKinds))),
		AdditionalValue: policyKinds,
	}
	return category(schema.CategoryBranches, len(branches),
		indicator("Total", float64(len(branches)), rating.Deviation(5, 10)),
		indicator("Stale", float64(stale), rating.Deviation(0, 10)),
		indicator("Abandoned", float64(abandoned), rating.Deviation(0, 20)),
		policies,
	)
}
