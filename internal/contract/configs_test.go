package contract

import (
	"testing"
	"time"

	"github.com/huangsam/devhealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func minimalInput() *ConfigRawInput {
	return &ConfigRawInput{
		Host: "https://dev.example.com/tfs/",
		Collections: []CollectionRawInput{
			{Name: "DefaultCollection", Projects: []string{"Shop", "Billing"}},
		},
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "missing host", mutate: func(in *ConfigRawInput) { in.Host = "" }, expectError: true},
		{name: "host without scheme", mutate: func(in *ConfigRawInput) { in.Host = "dev.example.com" }, expectError: true},
		{name: "invalid sonar host", mutate: func(in *ConfigRawInput) { in.SonarHost = "ftp://sonar" }, expectError: true},
		{name: "negative workers", mutate: func(in *ConfigRawInput) { in.Workers = -1 }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet output", mutate: func(in *ConfigRawInput) { in.Output = "PARQUET" }},
		{name: "invalid lookback", mutate: func(in *ConfigRawInput) { in.Lookback = "forever" }, expectError: true},
		{name: "invalid cache ttl", mutate: func(in *ConfigRawInput) { in.CacheTTL = "soon" }, expectError: true},
		{name: "negative request timeout", mutate: func(in *ConfigRawInput) { in.RequestTimeout = "-5s" }, expectError: true},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid runs backend", mutate: func(in *ConfigRawInput) { in.RunsBackend = "redis" }, expectError: true},
		{name: "mysql without connect", mutate: func(in *ConfigRawInput) { in.RunsBackend = "mysql" }, expectError: true},
		{name: "no collections", mutate: func(in *ConfigRawInput) { in.Collections = nil }, expectError: true},
		{
			name: "collection without projects",
			mutate: func(in *ConfigRawInput) {
				in.Collections = append(in.Collections, CollectionRawInput{Name: "Other"})
			},
			expectError: true,
		},
		{
			name: "duplicate collection",
			mutate: func(in *ConfigRawInput) {
				in.Collections = append(in.Collections, in.Collections[0])
			},
			expectError: true,
		},
		{name: "only matches nothing", mutate: func(in *ConfigRawInput) { in.Only = []string{"Nope"} }, expectError: true},
		{
			name: "non-positive baseline",
			mutate: func(in *ConfigRawInput) {
				zero := 0.0
				in.Ratings.PRReviewers = &zero
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := minimalInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input, configNow)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, minimalInput(), configNow))

	assert.Equal(t, "https://dev.example.com/tfs", cfg.Host)
	assert.Equal(t, 90*24*time.Hour, cfg.Lookback)
	assert.Equal(t, configNow.Add(-90*24*time.Hour), cfg.StartTime)
	assert.Equal(t, configNow, cfg.EndTime)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, schema.JSONOut, cfg.Output)
	assert.Equal(t, schema.SQLiteBackend, cfg.RunsBackend)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.NotEmpty(t, cfg.CacheDir)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, DefaultRatingBaselines(), cfg.Ratings)

	require.Len(t, cfg.Collections, 1)
	c := cfg.Collections[0]
	assert.Equal(t, []string{"Shop", "Billing"}, c.Projects)
	assert.False(t, c.WorkItems.Enabled())
	assert.Equal(t, DefaultDoneStates, c.WorkItems.DoneStates)
}

func TestProcessAndValidateOverrides(t *testing.T) {
	input := minimalInput()
	input.Lookback = "2 weeks"
	input.CacheTTL = "1h"
	input.RequestTimeout = "5s"
	input.Workers = 3
	input.Color = "no"
	input.Collections[0].WorkItems = WorkItemsRawInput{
		GroupUnder: []string{"Epic"},
		DoneStates: []string{"Shipped"},
	}
	reviewers := 3.0
	input.Ratings.PRReviewers = &reviewers

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input, configNow))

	assert.Equal(t, 14*24*time.Hour, cfg.Lookback)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.Workers)
	assert.False(t, cfg.UseColors)
	assert.Equal(t, 3.0, cfg.Ratings.PRReviewers)
	assert.Equal(t, 90.0, cfg.Ratings.BuildSuccessRate)

	wi := cfg.Collections[0].WorkItems
	assert.True(t, wi.Enabled())
	assert.Equal(t, []string{"Shipped"}, wi.DoneStates)
	assert.Equal(t, DefaultInProgressStates, wi.InProgressStates)
}

func TestProcessCollectionsOnlyFilter(t *testing.T) {
	tests := []struct {
		name string
		only []string
		want map[string][]string
	}{
		{
			name: "no filter keeps all",
			want: map[string][]string{"A": {"p1", "p2"}, "B": {"p3"}},
		},
		{
			name: "whole collection",
			only: []string{"B"},
			want: map[string][]string{"B": {"p3"}},
		},
		{
			name: "single project",
			only: []string{"A/p2"},
			want: map[string][]string{"A": {"p2"}},
		},
		{
			name: "mixed",
			only: []string{"A/p1", " B "},
			want: map[string][]string{"A": {"p1"}, "B": {"p3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := &ConfigRawInput{
				Only: tt.only,
				Collections: []CollectionRawInput{
					{Name: "A", Projects: []string{"p1", "p2", "p1"}},
					{Name: "B", Projects: []string{"p3"}},
				},
			}
			cfg := &Config{}
			require.NoError(t, processCollections(cfg, input))

			got := make(map[string][]string)
			for _, c := range cfg.Collections {
				got[c.Name] = c.Projects
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{schema.SQLiteBackend, "", false},
		{schema.NoneBackend, "", false},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)/devhealth", false},
		{schema.MySQLBackend, "user:pass@localhost/devhealth", true},
		{schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{schema.PostgreSQLBackend, "host=localhost dbname=devhealth", false},
		{schema.PostgreSQLBackend, "dbname=devhealth", true},
		{schema.PostgreSQLBackend, "host=localhost", true},
		{schema.PostgreSQLBackend, "", true},
	}

	for _, tt := range tests {
		err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
		if tt.wantErr {
			assert.Error(t, err, "%s %q", tt.backend, tt.conn)
		} else {
			assert.NoError(t, err, "%s %q", tt.backend, tt.conn)
		}
	}
}
