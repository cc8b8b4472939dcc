package core

import "context"

// Context keys for run options
type contextKey string

const runIDKey contextKey = "runID"

// withRunID stores the run-store id of the current run
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// getRunID returns the run-store id of the current run, if any
func getRunID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(runIDKey).(int64)
	return id, ok && id > 0
}
