// Package algo has generic fan-out and ranking helpers.
package algo

import (
	"sort"

	"github.com/huangsam/devhealth/schema"
)

// RankRepos sorts rollup rows from lowest to highest rating and returns the
// first 'limit' rows. Ties are ordered by collection, project and repo. A
// non-positive limit keeps every row.
func RankRepos(rows []schema.RollupRow, limit int) []schema.RollupRow {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating < rows[j].Rating
		}
		return rowKey(rows[i]) < rowKey(rows[j])
	})
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func rowKey(r schema.RollupRow) string {
	return r.Collection + "/" + r.Project + "/" + r.Repo
}
