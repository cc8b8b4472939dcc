package azdo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PolicyKind tags a branch policy configuration.
type PolicyKind string

// Known policy kinds, keyed off the upstream type display name.
const (
	PolicyMinimumReviewers  PolicyKind = "minimum-reviewers"
	PolicyRequiredReviewers PolicyKind = "required-reviewers"
	PolicyBuildValidation   PolicyKind = "build-validation"
	PolicyWorkItemLinking   PolicyKind = "work-item-linking"
	PolicyCommentResolution PolicyKind = "comment-resolution"
	PolicyMergeStrategy     PolicyKind = "merge-strategy"
	PolicyUnknown           PolicyKind = "unknown"
)

var policyKindsByDisplayName = map[string]PolicyKind{
	"Minimum number of reviewers": PolicyMinimumReviewers,
	"Required reviewers":          PolicyRequiredReviewers,
	"Build":                       PolicyBuildValidation,
	"Work item linking":           PolicyWorkItemLinking,
	"Comment requirements":        PolicyCommentResolution,
	"Require a merge strategy":    PolicyMergeStrategy,
}

// PolicyScope is a repository and ref a policy applies to. An empty
// repository id means every repository of the project.
type PolicyScope struct {
	RepositoryID string `json:"repositoryId"`
	RefName      string `json:"refName"`
	MatchKind    string `json:"matchKind"`
}

// Matches reports whether the scope covers the ref of a repository.
func (s PolicyScope) Matches(repoID, ref string) bool {
	if s.RepositoryID != "" && s.RepositoryID != repoID {
		return false
	}
	switch s.MatchKind {
	case "Prefix", "prefix":
		return strings.HasPrefix(ref, s.RefName)
	case "DefaultBranch", "defaultBranch":
		return true
	default:
		return s.RefName == "" || s.RefName == ref
	}
}

// Policy is a branch policy configuration decoded into its kind.
type Policy struct {
	ID                   int
	Kind                 PolicyKind
	DisplayName          string
	Enabled              bool
	Blocking             bool
	Scopes               []PolicyScope
	MinimumApproverCount int
	BuildDefinitionID    int
}

type rawPolicy struct {
	ID         int  `json:"id"`
	IsEnabled  bool `json:"isEnabled"`
	IsBlocking bool `json:"isBlocking"`
	IsDeleted  bool `json:"isDeleted"`
	Type       struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"type"`
	Settings struct {
		Scope                []PolicyScope `json:"scope"`
		MinimumApproverCount int           `json:"minimumApproverCount"`
		BuildDefinitionID    int           `json:"buildDefinitionId"`
	} `json:"settings"`
}

// UnmarshalJSON decodes the upstream shape and resolves the kind once.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var raw rawPolicy
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode policy: %w", err)
	}
	kind, ok := policyKindsByDisplayName[raw.Type.DisplayName]
	if !ok {
		kind = PolicyUnknown
	}
	*p = Policy{
		ID:                   raw.ID,
		Kind:                 kind,
		DisplayName:          raw.Type.DisplayName,
		Enabled:              raw.IsEnabled && !raw.IsDeleted,
		Blocking:             raw.IsBlocking,
		Scopes:               raw.Settings.Scope,
		MinimumApproverCount: raw.Settings.MinimumApproverCount,
		BuildDefinitionID:    raw.Settings.BuildDefinitionID,
	}
	return nil
}

// AppliesTo reports whether the policy covers the ref of a repository.
func (p Policy) AppliesTo(repoID, ref string) bool {
	if len(p.Scopes) == 0 {
		return true
	}
	for _, s := range p.Scopes {
		if s.Matches(repoID, ref) {
			return true
		}
	}
	return false
}

// BlockingKinds returns the distinct kinds of enabled blocking policies on
// the ref of a repository. Unknown kinds are ignored.
func BlockingKinds(policies []Policy, repoID, ref string) []PolicyKind {
	seen := map[PolicyKind]bool{}
	var kinds []PolicyKind
	for _, p := range policies {
		if !p.Enabled || !p.Blocking || p.Kind == PolicyUnknown || seen[p.Kind] {
			continue
		}
		if p.AppliesTo(repoID, ref) {
			seen[p.Kind] = true
			kinds = append(kinds, p.Kind)
		}
	}
	return kinds
}
