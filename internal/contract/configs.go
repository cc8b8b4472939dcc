package contract

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/devhealth/schema"
)

// Default values for configuration.
const (
	DefaultLookback       = "90 days"
	DefaultCacheTTL       = 24 * time.Hour
	DefaultRequestTimeout = 60 * time.Second
	DefaultOutputDir      = "./devhealth-out"
)

// DefaultWorkers is the default number of concurrent project workers.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Default states used to derive work-item cycle times.
var (
	DefaultInProgressStates = []string{"Active", "In Progress", "Committed", "Doing"}
	DefaultDoneStates       = []string{"Closed", "Done", "Resolved", "Completed"}
)

// WorkItemsConfig controls how the work-item forest is grouped.
type WorkItemsConfig struct {
	GroupUnder       []string
	LeafTypes        []string
	InProgressStates []string
	DoneStates       []string
}

// Enabled reports whether work items should be scraped for the collection.
func (w WorkItemsConfig) Enabled() bool {
	return len(w.GroupUnder) > 0
}

// CollectionConfig names one collection and the projects to scrape in it.
type CollectionConfig struct {
	Name      string
	Projects  []string
	WorkItems WorkItemsConfig
}

// RatingBaselines holds the baselines that feed the rating formulas.
type RatingBaselines struct {
	DevsPerTeamPerDay     float64
	BuildSuccessRate      float64
	BuildDurationMinutes  float64
	PRCompletionRate      float64
	PRApproveHours        float64
	PRReviewers           float64
	TestPassRate          float64
	TestsPerRun           float64
	LineCoverage          float64
	ReleasesPerWeek       float64
	DeploymentSuccessRate float64
}

// DefaultRatingBaselines returns the baselines used when the config has none.
func DefaultRatingBaselines() RatingBaselines {
	return RatingBaselines{
		DevsPerTeamPerDay:     1,
		BuildSuccessRate:      90,
		BuildDurationMinutes:  3,
		PRCompletionRate:      80,
		PRApproveHours:        24,
		PRReviewers:           2,
		TestPassRate:          100,
		TestsPerRun:           50,
		LineCoverage:          80,
		ReleasesPerWeek:       1,
		DeploymentSuccessRate: 90,
	}
}

// Config holds the runtime configuration for a scrape.
// This struct is the "final, validated" config.
type Config struct {
	Host       string
	Token      string // Please use env var as this is plaintext
	SonarHost  string
	SonarToken string // Please use env var as this is plaintext

	CacheDir       string
	CacheTTL       time.Duration
	Lookback       time.Duration
	StartTime      time.Time
	EndTime        time.Time
	Workers        int
	RequestTimeout time.Duration

	OutputDir string
	Output    schema.OutputMode

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	Verbose   bool
	UseColors bool

	Collections []CollectionConfig
	Ratings     RatingBaselines
}

// WorkItemsRawInput is the raw work-items block of a collection.
type WorkItemsRawInput struct {
	GroupUnder       []string `mapstructure:"group-under"`
	LeafTypes        []string `mapstructure:"leaf-types"`
	InProgressStates []string `mapstructure:"in-progress-states"`
	DoneStates       []string `mapstructure:"done-states"`
}

// CollectionRawInput is one raw entry of the collections list.
type CollectionRawInput struct {
	Name      string            `mapstructure:"name"`
	Projects  []string          `mapstructure:"projects"`
	WorkItems WorkItemsRawInput `mapstructure:"work-items"`
}

// RatingsRawInput holds baseline overrides from the YAML config file.
// Pointers distinguish "unset" from zero.
type RatingsRawInput struct {
	DevsPerTeamPerDay     *float64 `mapstructure:"devs-per-team-per-day"`
	BuildSuccessRate      *float64 `mapstructure:"build-success-rate"`
	BuildDurationMinutes  *float64 `mapstructure:"build-duration-minutes"`
	PRCompletionRate      *float64 `mapstructure:"pr-completion-rate"`
	PRApproveHours        *float64 `mapstructure:"pr-approve-hours"`
	PRReviewers           *float64 `mapstructure:"pr-reviewers"`
	TestPassRate          *float64 `mapstructure:"test-pass-rate"`
	TestsPerRun           *float64 `mapstructure:"tests-per-run"`
	LineCoverage          *float64 `mapstructure:"line-coverage"`
	ReleasesPerWeek       *float64 `mapstructure:"releases-per-week"`
	DeploymentSuccessRate *float64 `mapstructure:"deployment-success-rate"`
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	Host           string `mapstructure:"host"`
	Token          string `mapstructure:"token"`
	SonarHost      string `mapstructure:"sonar-host"`
	SonarToken     string `mapstructure:"sonar-token"`
	CacheDir       string `mapstructure:"cache-dir"`
	CacheTTL       string `mapstructure:"cache-ttl"`
	Lookback       string `mapstructure:"lookback"`
	Workers        int    `mapstructure:"workers"`
	RequestTimeout string `mapstructure:"request-timeout"`
	OutputDir      string `mapstructure:"output-dir"`
	Output         string `mapstructure:"output"`
	RunsBackend    string `mapstructure:"runs-backend"`
	RunsDBConnect  string `mapstructure:"runs-db-connect"`
	Verbose        bool   `mapstructure:"verbose"`
	Color          string `mapstructure:"color"`

	// --- Fields from scrapeCmd.Flags() ---
	Only []string `mapstructure:"only"`

	// --- Blocks from the config file ---
	Collections []CollectionRawInput `mapstructure:"collections"`
	Ratings     RatingsRawInput      `mapstructure:"ratings"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input, now); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processCollections(cfg, input); err != nil {
		return err
	}
	if err := processRatings(cfg, input); err != nil {
		return err
	}
	return nil
}

// ProcessStoreOnly validates only what commands that read the run store need.
func ProcessStoreOnly(cfg *Config, input *ConfigRawInput) error {
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("runs-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("runs-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the run-store backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := input.RunsBackend
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(backend))
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	return ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect)
}

// validateSimpleInputs processes and validates hosts, workers and output settings.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Token = input.Token
	cfg.SonarToken = input.SonarToken
	cfg.Verbose = input.Verbose

	// --- 1. Host Validation ---
	if input.Host == "" {
		return errors.New("host is required")
	}
	host, err := normalizeHost(input.Host)
	if err != nil {
		return fmt.Errorf("invalid host: %w", err)
	}
	cfg.Host = host

	if input.SonarHost != "" {
		sonarHost, err := normalizeHost(input.SonarHost)
		if err != nil {
			return fmt.Errorf("invalid sonar-host: %w", err)
		}
		cfg.SonarHost = sonarHost
	}

	// --- 2. Workers Validation ---
	cfg.Workers = input.Workers
	if cfg.Workers == 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}

	// --- 3. Output Validation ---
	output := input.Output
	if output == "" {
		output = string(schema.JSONOut)
	}
	cfg.Output = schema.OutputMode(strings.ToLower(output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be json, csv, parquet", input.Output)
	}

	cfg.OutputDir = input.OutputDir
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	cfg.CacheDir = ExpandHome(input.CacheDir)
	if cfg.CacheDir == "" {
		cfg.CacheDir = GetDefaultCacheDir()
	}

	// --- 4. Color Validation ---
	cfg.UseColors = true
	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	return nil
}

// processDurations parses the lookback, TTL and timeout settings.
func processDurations(cfg *Config, input *ConfigRawInput, now time.Time) error {
	lookback := input.Lookback
	if lookback == "" {
		lookback = DefaultLookback
	}
	d, err := ParseLookbackDuration(lookback)
	if err != nil {
		return fmt.Errorf("invalid lookback: %w", err)
	}
	cfg.Lookback = d
	cfg.EndTime = now
	cfg.StartTime = now.Add(-d)

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := ParseLookbackDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache-ttl: %w", err)
		}
		cfg.CacheTTL = ttl
	}

	cfg.RequestTimeout = DefaultRequestTimeout
	if input.RequestTimeout != "" {
		timeout, err := time.ParseDuration(input.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request-timeout: %w", err)
		}
		if timeout <= 0 {
			return fmt.Errorf("request-timeout must be positive (received %s)", input.RequestTimeout)
		}
		cfg.RequestTimeout = timeout
	}
	return nil
}

// processCollections validates the collections block and applies --only filters.
// An --only entry is either "collection" or "collection/project".
func processCollections(cfg *Config, input *ConfigRawInput) error {
	if len(input.Collections) == 0 {
		return errors.New("at least one collection must be configured")
	}

	seen := make(map[string]struct{})
	cfg.Collections = cfg.Collections[:0]
	for i, raw := range input.Collections {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			return fmt.Errorf("collection #%d has no name", i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("collection %q is configured twice", name)
		}
		seen[name] = struct{}{}
		if len(raw.Projects) == 0 {
			return fmt.Errorf("collection %q has no projects", name)
		}

		var projects []string
		for _, p := range raw.Projects {
			p = strings.TrimSpace(p)
			if p == "" || slices.Contains(projects, p) {
				continue
			}
			if selected(input.Only, name, p) {
				projects = append(projects, p)
			}
		}
		if len(projects) == 0 {
			continue
		}

		wi := WorkItemsConfig{
			GroupUnder:       raw.WorkItems.GroupUnder,
			LeafTypes:        raw.WorkItems.LeafTypes,
			InProgressStates: raw.WorkItems.InProgressStates,
			DoneStates:       raw.WorkItems.DoneStates,
		}
		if len(wi.InProgressStates) == 0 {
			wi.InProgressStates = DefaultInProgressStates
		}
		if len(wi.DoneStates) == 0 {
			wi.DoneStates = DefaultDoneStates
		}
		cfg.Collections = append(cfg.Collections, CollectionConfig{Name: name, Projects: projects, WorkItems: wi})
	}

	if len(cfg.Collections) == 0 {
		return fmt.Errorf("--only %v matched no configured project", input.Only)
	}
	return nil
}

// selected reports whether collection/project passes the --only filter.
func selected(only []string, collection, project string) bool {
	if len(only) == 0 {
		return true
	}
	for _, o := range only {
		c, p, hasProject := strings.Cut(strings.TrimSpace(o), "/")
		if c != collection {
			continue
		}
		if !hasProject || p == project {
			return true
		}
	}
	return false
}

// processRatings applies baseline overrides on top of the defaults.
func processRatings(cfg *Config, input *ConfigRawInput) error {
	b := DefaultRatingBaselines()
	r := input.Ratings

	overrides := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"devs-per-team-per-day", r.DevsPerTeamPerDay, &b.DevsPerTeamPerDay},
		{"build-success-rate", r.BuildSuccessRate, &b.BuildSuccessRate},
		{"build-duration-minutes", r.BuildDurationMinutes, &b.BuildDurationMinutes},
		{"pr-completion-rate", r.PRCompletionRate, &b.PRCompletionRate},
		{"pr-approve-hours", r.PRApproveHours, &b.PRApproveHours},
		{"pr-reviewers", r.PRReviewers, &b.PRReviewers},
		{"test-pass-rate", r.TestPassRate, &b.TestPassRate},
		{"tests-per-run", r.TestsPerRun, &b.TestsPerRun},
		{"line-coverage", r.LineCoverage, &b.LineCoverage},
		{"releases-per-week", r.ReleasesPerWeek, &b.ReleasesPerWeek},
		{"deployment-success-rate", r.DeploymentSuccessRate, &b.DeploymentSuccessRate},
	}
	for _, o := range overrides {
		if o.src == nil {
			continue
		}
		if *o.src <= 0 {
			return fmt.Errorf("ratings.%s must be greater than 0 (received %.2f)", o.name, *o.src)
		}
		*o.dst = *o.src
	}

	cfg.Ratings = b
	return nil
}

// normalizeHost checks that the host is an absolute http(s) URL and strips any trailing slash.
func normalizeHost(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%q must start with http:// or https://", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%q has no host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
