package azdo

import "time"

// Project is a team project inside a collection.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Repository is a Git repository.
type Repository struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DefaultBranch string `json:"defaultBranch"`
	Size          int64  `json:"size"`
	IsDisabled    bool   `json:"isDisabled"`
}

// RepositoryRef identifies the repository of a build or pull request.
type RepositoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// DefinitionRef identifies a build or release definition.
type DefinitionRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Build is one completed pipeline run.
type Build struct {
	ID           int           `json:"id"`
	BuildNumber  string        `json:"buildNumber"`
	Status       string        `json:"status"`
	Result       string        `json:"result"`
	QueueTime    time.Time     `json:"queueTime"`
	StartTime    time.Time     `json:"startTime"`
	FinishTime   time.Time     `json:"finishTime"`
	SourceBranch string        `json:"sourceBranch"`
	Repository   RepositoryRef `json:"repository"`
	Definition   DefinitionRef `json:"definition"`
}

// Succeeded reports whether the build result is success.
func (b Build) Succeeded() bool {
	return b.Result == "succeeded"
}

// Duration is the wall time between start and finish.
func (b Build) Duration() time.Duration {
	if b.StartTime.IsZero() || b.FinishTime.IsZero() {
		return 0
	}
	return b.FinishTime.Sub(b.StartTime)
}

// GitUserDate is the author or committer of a commit.
type GitUserDate struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// BranchCommit is the tip commit of a branch.
type BranchCommit struct {
	CommitID  string      `json:"commitId"`
	Author    GitUserDate `json:"author"`
	Committer GitUserDate `json:"committer"`
}

// BranchStat compares a branch to the default branch.
type BranchStat struct {
	Name          string       `json:"name"`
	AheadCount    int          `json:"aheadCount"`
	BehindCount   int          `json:"behindCount"`
	IsBaseVersion bool         `json:"isBaseVersion"`
	Commit        BranchCommit `json:"commit"`
}

// Reviewer is one reviewer of a pull request. A vote of 10 approves and 5
// approves with suggestions.
type Reviewer struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Vote        int    `json:"vote"`
	IsRequired  bool   `json:"isRequired"`
}

// Approved reports an approving vote.
func (r Reviewer) Approved() bool {
	return r.Vote >= 5
}

// PullRequest is one pull request in any status.
type PullRequest struct {
	PullRequestID int           `json:"pullRequestId"`
	Title         string        `json:"title"`
	Status        string        `json:"status"`
	CreationDate  time.Time     `json:"creationDate"`
	ClosedDate    time.Time     `json:"closedDate"`
	TargetRefName string        `json:"targetRefName"`
	Repository    RepositoryRef `json:"repository"`
	Reviewers     []Reviewer    `json:"reviewers"`
}

// Approved reports whether any reviewer approved.
func (pr PullRequest) Approved() bool {
	for _, r := range pr.Reviewers {
		if r.Approved() {
			return true
		}
	}
	return false
}

// ReleaseEnvironment is one stage of a release.
type ReleaseEnvironment struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Release is one release of a release definition.
type Release struct {
	ID                int                  `json:"id"`
	Name              string               `json:"name"`
	Status            string               `json:"status"`
	CreatedOn         time.Time            `json:"createdOn"`
	ReleaseDefinition DefinitionRef        `json:"releaseDefinition"`
	Environments      []ReleaseEnvironment `json:"environments"`
}

// Approval is one configured approval step.
type Approval struct {
	Rank        int  `json:"rank"`
	IsAutomated bool `json:"isAutomated"`
}

// DefinitionEnvironment is one stage of a release definition.
type DefinitionEnvironment struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	PreDeployApprovals struct {
		Approvals []Approval `json:"approvals"`
	} `json:"preDeployApprovals"`
}

// HasManualApproval reports whether a human must approve deployment.
func (e DefinitionEnvironment) HasManualApproval() bool {
	for _, a := range e.PreDeployApprovals.Approvals {
		if !a.IsAutomated {
			return true
		}
	}
	return false
}

// ReleaseDefinition is a release pipeline.
type ReleaseDefinition struct {
	ID           int                     `json:"id"`
	Name         string                  `json:"name"`
	Environments []DefinitionEnvironment `json:"environments"`
}

// HasApprovals reports whether any stage needs a manual pre-deploy approval.
func (d ReleaseDefinition) HasApprovals() bool {
	for _, e := range d.Environments {
		if e.HasManualApproval() {
			return true
		}
	}
	return false
}

// TestRun is one test run. Its build id is a string upstream.
type TestRun struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	State         string    `json:"state"`
	TotalTests    int       `json:"totalTests"`
	PassedTests   int       `json:"passedTests"`
	CompletedDate time.Time `json:"completedDate"`
	Build         *struct {
		ID string `json:"id"`
	} `json:"build"`
}

// BuildID returns the id of the build that produced the run, or "".
func (r TestRun) BuildID() string {
	if r.Build == nil {
		return ""
	}
	return r.Build.ID
}

// CoverageStat is one coverage counter, such as Lines or Branches.
type CoverageStat struct {
	Label   string  `json:"label"`
	Covered float64 `json:"covered"`
	Total   float64 `json:"total"`
}

// CodeCoverage is the coverage summary of one build.
type CodeCoverage struct {
	CoverageData []struct {
		CoverageStats []CoverageStat `json:"coverageStats"`
	} `json:"coverageData"`
}

// LinePercent returns covered lines as a percentage, and false when the
// build has no line counters.
func (c CodeCoverage) LinePercent() (float64, bool) {
	var covered, total float64
	for _, d := range c.CoverageData {
		for _, s := range d.CoverageStats {
			if s.Label == "Lines" || s.Label == "Line" {
				covered += s.Covered
				total += s.Total
			}
		}
	}
	if total == 0 {
		return 0, false
	}
	return covered * 100 / total, true
}

// WorkItemType is a work-item type such as Bug or Feature.
type WorkItemType struct {
	Name          string `json:"name"`
	ReferenceName string `json:"referenceName"`
	Color         string `json:"color"`
	IsDisabled    bool   `json:"isDisabled"`
}

// WorkItemTypeCategory groups work-item types, such as the requirement category.
type WorkItemTypeCategory struct {
	Name                string `json:"name"`
	ReferenceName       string `json:"referenceName"`
	DefaultWorkItemType struct {
		Name string `json:"name"`
	} `json:"defaultWorkItemType"`
	WorkItemTypes []struct {
		Name string `json:"name"`
	} `json:"workItemTypes"`
}
