package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"

	"github.com/olekukonko/tablewriter"
)

// PrintRunSummary prints the success and failure lists of a run. Failed runs
// get a reminder that reruns reuse the disk cache.
func PrintRunSummary(w io.Writer, s schema.RunSummary, useColors bool) error {
	ok, failed := fmt.Sprint, fmt.Sprint
	if useColors {
		ok = contract.SuccessColor.Sprint
		failed = contract.FailureColor.Sprint
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Project", "Status"})
	var data [][]string
	for _, unit := range s.Succeeded {
		data = append(data, []string{unit, ok("ok")})
	}
	for _, unit := range s.Failed {
		data = append(data, []string{unit, failed("failed")})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Reasons stay off the table so long URLs are never wrapped
	for i, unit := range s.Failed {
		if i >= len(s.Errors) {
			break
		}
		if _, err := fmt.Fprintf(w, "✗ %s: %s\n", unit, s.Errors[i]); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%d of %d projects succeeded in %s\n", len(s.Succeeded), s.Total, s.Duration); err != nil {
		return err
	}
	if len(s.Failed) > 0 {
		_, err := fmt.Fprintf(w, "%s Rerun the same command to retry: fresh cached responses are not fetched again.\n",
			failed(fmt.Sprintf("%d project(s) failed.", len(s.Failed))))
		return err
	}
	return nil
}
