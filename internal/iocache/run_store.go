package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for run tracking.
const (
	scrapeRunsTable  = "devhealth_scrape_runs"
	repoRatingsTable = "devhealth_repo_ratings"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = GetRunsDBFilePath()
		}
		db, err = sql.Open(driverFor(backend), dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		db, err = sql.Open(driverFor(backend), connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname?parseTime=true", err)
		}

	case schema.PostgreSQLBackend:
		db, err = sql.Open(driverFor(backend), connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=... user=... password=...", err)
		}

	case schema.NoneBackend:
		// No-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w. Verify the database server is running and accessible", backend, err)
	}

	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{scrapeRunsTable, getCreateScrapeRunsQuery(backend)},
		{repoRatingsTable, getCreateRepoRatingsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateScrapeRunsQuery returns the CREATE TABLE query for devhealth_scrape_runs.
func getCreateScrapeRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(scrapeRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				projects_total INT NOT NULL DEFAULT 0,
				projects_failed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				projects_total INT NOT NULL DEFAULT 0,
				projects_failed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				projects_total INTEGER NOT NULL DEFAULT 0,
				projects_failed INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRepoRatingsQuery returns the CREATE TABLE query for devhealth_repo_ratings.
func getCreateRepoRatingsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(repoRatingsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				collection VARCHAR(255) NOT NULL,
				project VARCHAR(255) NOT NULL,
				repo VARCHAR(255) NOT NULL,
				rating INT NOT NULL,
				branches INT NOT NULL,
				pull_requests INT NOT NULL,
				builds INT NOT NULL,
				code_quality INT NOT NULL,
				test_coverage INT NOT NULL,
				has_sonar BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, collection, project, repo)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				collection TEXT NOT NULL,
				project TEXT NOT NULL,
				repo TEXT NOT NULL,
				rating INT NOT NULL,
				branches INT NOT NULL,
				pull_requests INT NOT NULL,
				builds INT NOT NULL,
				code_quality INT NOT NULL,
				test_coverage INT NOT NULL,
				has_sonar BOOLEAN NOT NULL,
				PRIMARY KEY (run_id, collection, project, repo)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				collection TEXT NOT NULL,
				project TEXT NOT NULL,
				repo TEXT NOT NULL,
				rating INTEGER NOT NULL,
				branches INTEGER NOT NULL,
				pull_requests INTEGER NOT NULL,
				builds INTEGER NOT NULL,
				code_quality INTEGER NOT NULL,
				test_coverage INTEGER NOT NULL,
				has_sonar INTEGER NOT NULL,
				PRIMARY KEY (run_id, collection, project, repo)
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is a no-op.
func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// BeginRun creates a new scrape run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(scrapeRunsTable, rs.backend)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, formatTime(startTime, rs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert scrape run: %w", err)
	}

	return runID, nil
}

// EndRun updates the scrape run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, projectsTotal, projectsFailed int) error {
	if rs.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(scrapeRunsTable, rs.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(rs.backend, 1))
	startTime, err := rs.scanTime(rs.db.QueryRow(query, runID))
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, projects_total = %s, projects_failed = %s WHERE run_id = %s`,
		quotedTableName,
		placeholder(rs.backend, 1), placeholder(rs.backend, 2), placeholder(rs.backend, 3),
		placeholder(rs.backend, 4), placeholder(rs.backend, 5))

	if _, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs, projectsTotal, projectsFailed, runID); err != nil {
		return fmt.Errorf("failed to update scrape run: %w", err)
	}

	return nil
}

// RecordRepoRating stores the final ratings of one repository.
func (rs *RunStoreImpl) RecordRepoRating(record schema.RepoRatingRecord) error {
	if rs.disabled() {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, collection, project, repo, rating, branches, pull_requests,
		                builds, code_quality, test_coverage, has_sonar)
		VALUES (%s)
	`, quoteTableName(repoRatingsTable, rs.backend), placeholders(rs.backend, 11))

	_, err := rs.db.Exec(query,
		record.RunID, record.Collection, record.Project, record.Repo, record.Rating,
		record.Branches, record.PullRequests, record.Builds, record.CodeQuality,
		record.TestCoverage, record.HasSonar,
	)
	if err != nil {
		return fmt.Errorf("failed to insert repo rating for %s/%s/%s: %w", record.Collection, record.Project, record.Repo, err)
	}

	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStoreStatus, error) {
	status := schema.RunStoreStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.disabled() {
		return status, nil
	}

	runsTable := quoteTableName(scrapeRunsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		lastRunQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runsTable)
		var lastStart any
		if err := rs.db.QueryRow(lastRunQuery).Scan(&status.LastRunID, &lastStart); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		t, err := rs.toTime(lastStart)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = t

		oldestRunQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runsTable)
		oldest, err := rs.scanTime(rs.db.QueryRow(oldestRunQuery))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest
	}

	for _, table := range []string{scrapeRunsTable, repoRatingsTable} {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))
		if err := rs.db.QueryRow(query).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRatings = int(status.TableSizes[repoRatingsTable])

	return status, nil
}

// LatestRunID returns the most recent run ID, or 0 when none exist.
func (rs *RunStoreImpl) LatestRunID() (int64, error) {
	if rs.disabled() {
		return 0, nil
	}
	var runID sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(run_id) FROM %s", quoteTableName(scrapeRunsTable, rs.backend))
	if err := rs.db.QueryRow(query).Scan(&runID); err != nil {
		return 0, fmt.Errorf("failed to get latest run: %w", err)
	}
	return runID.Int64, nil
}

// GetAllRuns retrieves all scrape runs, newest first.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.ScrapeRunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, projects_total, projects_failed, config_params
		FROM %s ORDER BY run_id DESC`, quoteTableName(scrapeRunsTable, rs.backend))

	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrape runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ScrapeRunRecord
	for rows.Next() {
		var record schema.ScrapeRunRecord
		var start, end any
		if err := rows.Scan(&record.RunID, &start, &end, &record.RunDurationMs,
			&record.ProjectsTotal, &record.ProjectsFailed, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan scrape run: %w", err)
		}
		if record.StartTime, err = rs.toTime(start); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if end != nil {
			endTime, err := rs.toTime(end)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scrape runs: %w", err)
	}

	return results, nil
}

// GetAllRepoRatings retrieves every stored repo rating.
func (rs *RunStoreImpl) GetAllRepoRatings() ([]schema.RepoRatingRecord, error) {
	return rs.queryRepoRatings("", nil)
}

// GetRepoRatings retrieves the repo ratings of one run.
func (rs *RunStoreImpl) GetRepoRatings(runID int64) ([]schema.RepoRatingRecord, error) {
	return rs.queryRepoRatings(fmt.Sprintf("WHERE run_id = %s", placeholder(rs.backend, 1)), []any{runID})
}

func (rs *RunStoreImpl) queryRepoRatings(where string, args []any) ([]schema.RepoRatingRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, collection, project, repo, rating, branches, pull_requests,
		builds, code_quality, test_coverage, has_sonar
		FROM %s %s ORDER BY run_id, collection, project, repo`, quoteTableName(repoRatingsTable, rs.backend), where)

	rows, err := rs.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query repo ratings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RepoRatingRecord
	for rows.Next() {
		var r schema.RepoRatingRecord
		if err := rows.Scan(&r.RunID, &r.Collection, &r.Project, &r.Repo, &r.Rating, &r.Branches,
			&r.PullRequests, &r.Builds, &r.CodeQuality, &r.TestCoverage, &r.HasSonar); err != nil {
			return nil, fmt.Errorf("failed to scan repo rating: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repo ratings: %w", err)
	}

	return results, nil
}

// scanTime scans a single time column in the backend's storage format.
func (rs *RunStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	var v any
	if err := row.Scan(&v); err != nil {
		return time.Time{}, err
	}
	return rs.toTime(v)
}

// toTime converts a scanned time column. SQLite stores RFC3339 text while
// MySQL and PostgreSQL store native datetimes.
func (rs *RunStoreImpl) toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected time value of type %T", v)
	}
}
