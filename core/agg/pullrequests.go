package agg

import (
	"github.com/huangsam/devhealth/core/rating"
	"github.com/huangsam/devhealth/internal/azdo"
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
)

// PRStats accumulates the pull requests of one repository.
type PRStats struct {
	Total        int
	Active       int
	Completed    int
	Abandoned    int
	Reviewers    int
	Approved     int
	ApproveHours float64
}

// Add folds one pull request into the stats. The list endpoint carries no
// vote timestamps, so time to approve is measured up to the close of
// approved pull requests.
func (s *PRStats) Add(pr azdo.PullRequest) {
	s.Total++
	s.Reviewers += len(pr.Reviewers)
	switch pr.Status {
	case "active":
		s.Active++
	case "completed":
		s.Completed++
	case "abandoned":
		s.Abandoned++
	}
	if pr.Approved() && !pr.ClosedDate.IsZero() && pr.ClosedDate.After(pr.CreationDate) {
		s.Approved++
		s.ApproveHours += pr.ClosedDate.Sub(pr.CreationDate).Hours()
	}
}

// AccumulatePullRequests groups pull requests by repository id in one pass.
func AccumulatePullRequests(prs []azdo.PullRequest) map[string]*PRStats {
	stats := make(map[string]*PRStats)
	for _, pr := range prs {
		s, ok := stats[pr.Repository.ID]
		if !ok {
			s = &PRStats{}
			stats[pr.Repository.ID] = s
		}
		s.Add(pr)
	}
	return stats
}

// PullRequestIndicators rates the pull requests of one repository.
func PullRequestIndicators(s *PRStats, b contract.RatingBaselines) schema.TopLevelIndicator {
	if s == nil {
		s = &PRStats{}
	}
	closed := float64(s.Completed + s.Abandoned)
	return category(schema.CategoryPullRequests, s.Total,
		indicator("Active", float64(s.Active), rating.Deviation(5, 5)),
		indicator("Completion rate", ratio(float64(s.Completed)*100, closed), rating.Percent(b.PRCompletionRate)),
		indicator("Average time to approve", ratio(s.ApproveHours, float64(s.Approved)), rating.InversePercentWith0AsUnfit(b.PRApproveHours)),
		indicator("Average reviewers", ratio(float64(s.Reviewers), float64(s.Total)), rating.Percent(b.PRReviewers)),
	)
}
