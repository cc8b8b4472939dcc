package iocache

import (
	"fmt"
	"io"
	"sort"

	"github.com/huangsam/devhealth/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintCacheStatus prints disk cache status information.
func PrintCacheStatus(w io.Writer, status schema.DiskCacheStatus) {
	_, _ = fmt.Fprintf(w, "Cache Root: %s\n", status.Root)
	_, _ = fmt.Fprintf(w, "Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		_, _ = fmt.Fprintf(w, "Newest Entry: %s\n", status.NewestEntry.Local().Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s\n", status.OldestEntry.Local().Format(statusTimeFormat))
	}
	if status.CorruptFiles > 0 {
		_, _ = fmt.Fprintf(w, "Corrupt Files: %d\n", status.CorruptFiles)
	}
	_, _ = fmt.Fprintf(w, "Total Size: %d bytes\n", status.TotalBytes)
}

// PrintRunStoreStatus prints run store status information.
func PrintRunStoreStatus(w io.Writer, status schema.RunStoreStatus) {
	_, _ = fmt.Fprintf(w, "Runs Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Local().Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Local().Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Total Repo Ratings: %d\n", status.TotalRatings)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
