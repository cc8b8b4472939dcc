package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeRollupCSV writes one line per repository.
func writeRollupCSV(w io.Writer, rows []schema.RollupRow) error {
	header := []string{
		"collection",
		"project",
		"repo",
		"rating",
		"label",
		"branches",
		"pull_requests",
		"builds",
		"code_quality",
		"test_coverage",
		"has_sonar",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			rec := []string{
				r.Collection,
				r.Project,
				r.Repo,
				strconv.Itoa(r.Rating),
				contract.GetPlainLabel(r.Rating),
				strconv.Itoa(r.Branches),
				strconv.Itoa(r.PullRequests),
				strconv.Itoa(r.Builds),
				strconv.Itoa(r.CodeQuality),
				strconv.Itoa(r.TestCoverage),
				strconv.FormatBool(r.HasSonar),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeIndicatorsCSV flattens every indicator of every repository.
func writeIndicatorsCSV(w io.Writer, projects []schema.ProjectAnalysis) error {
	header := []string{"collection", "project", "repo", "category", "indicator", "value", "rating"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range projects {
			for _, repo := range p.RepoAnalysis {
				for _, tli := range repo.Indicators {
					for _, ind := range tli.Indicators {
						rec := []string{
							p.Collection,
							p.Project,
							repo.Name,
							string(tli.Name),
							ind.Name,
							formatValue(ind.Value),
							strconv.Itoa(ind.Rating),
						}
						if err := cw.Write(rec); err != nil {
							return err
						}
					}
				}
			}
			for _, tli := range p.ReleaseAnalysis.Indicators {
				for _, ind := range tli.Indicators {
					rec := []string{p.Collection, p.Project, "", string(tli.Name), ind.Name, formatValue(ind.Value), strconv.Itoa(ind.Rating)}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// PrintRollupTable renders ranked rollup rows as a table. Rows are printed
// in the order given.
func PrintRollupTable(w io.Writer, rows []schema.RollupRow, useColors bool) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Repo", "Rating", "Label", "Branches", "PR", "Builds", "Code quality", "Test coverage"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	label := contract.GetPlainLabel
	if useColors {
		label = contract.GetColorLabel
	}
	width := getMaxTableNameWidth()

	var data [][]string
	for i, r := range rows {
		codeQuality := strconv.Itoa(r.CodeQuality)
		if !r.HasSonar {
			codeQuality = "-"
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			truncateName(r.Collection+"/"+r.Project+"/"+r.Repo, width),
			strconv.Itoa(r.Rating),
			label(r.Rating),
			strconv.Itoa(r.Branches),
			strconv.Itoa(r.PullRequests),
			strconv.Itoa(r.Builds),
			codeQuality,
			strconv.Itoa(r.TestCoverage),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
