package repo

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/qapulse/qapulse/internal/models"
	"github.com/qapulse/qapulse/internal/utils"
)

// Store persists test results in SQLite and serves analytics reads.
type Store struct {
	writeDB *sql.DB
	readDB  *sql.DB
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore wraps existing write and read pools. readDB may equal writeDB.
func NewStore(writeDB, readDB *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if readDB == nil {
		readDB = writeDB
	}
	return &Store{writeDB: writeDB, readDB: readDB, logger: logger, now: time.Now}
}

// OpenStore opens the SQLite file at path, migrates it and returns a Store.
func OpenStore(path string, readMaxOpen int, logger *slog.Logger) (*Store, error) {
	writeDB, readDB, err := OpenSQLitePair(path, readMaxOpen)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(writeDB); err != nil {
		_ = readDB.Close()
		_ = writeDB.Close()
		return nil, err
	}
	return NewStore(writeDB, readDB, logger), nil
}

// Close releases both pools.
func (s *Store) Close() error {
	var firstErr error
	if s.readDB != s.writeDB {
		firstErr = s.readDB.Close()
	}
	if err := s.writeDB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Ping checks that the read pool is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.readDB.PingContext(ctx)
}

// ExecuteQuery runs a read-only statement and returns each row keyed by column name.
func (s *Store) ExecuteQuery(ctx context.Context, query string, args ...any) ([]models.Row, error) {
	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, utils.Wrap("store.query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, utils.Wrap("store.columns", err)
	}

	out := make([]models.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, utils.Wrap("store.scan", err)
		}
		row := make(models.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.Wrap("store.rows", err)
	}
	return out, nil
}

// InsertRun validates and stores one run with its cases in a single transaction.
func (s *Store) InsertRun(ctx context.Context, payload models.RunPayload) (models.IngestResult, error) {
	run, err := prepareRun(payload)
	if err != nil {
		return models.IngestResult{}, err
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return models.IngestResult{}, utils.Wrap("store.run_id", err)
	}
	createdAt := s.now().UTC().UnixMilli()

	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return models.IngestResult{}, utils.Wrap("store.begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	projectID, err := upsertProject(ctx, tx, run.projectKey, createdAt)
	if err != nil {
		return models.IngestResult{}, err
	}

	var finishedAt any
	if run.finishedAt != nil {
		finishedAt = run.finishedAt.UnixMilli()
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO test_runs
		(id, project_id, suite, env, branch, commit_sha, ci_build_id, started_at, finished_at,
		 duration_ms, coverage_pct, pass_count, fail_count, skip_count, total_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID.String(), projectID, run.info.Suite, run.info.Env, run.info.Branch, run.info.Commit,
		run.info.CIBuildID, run.startedAt.UnixMilli(), finishedAt, run.durationMs, run.info.CoveragePct,
		run.totals.Pass, run.totals.Fail, run.totals.Skip, run.totals.Total, createdAt,
	)
	if err != nil {
		return models.IngestResult{}, utils.Wrap("store.insert_run", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO test_cases
		(id, run_id, name, status, duration_ms, error_message, browser, tags_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return models.IngestResult{}, utils.Wrap("store.prepare_case", err)
	}
	defer stmt.Close()

	for _, c := range run.cases {
		caseID, err := uuid.NewV7()
		if err != nil {
			return models.IngestResult{}, utils.Wrap("store.case_id", err)
		}
		if _, err := stmt.ExecContext(ctx, caseID.String(), runID.String(), c.name, string(c.status),
			c.durationMs, c.errorMessage, c.browser, c.tagsJSON); err != nil {
			return models.IngestResult{}, utils.Wrap("store.insert_case", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.IngestResult{}, utils.Wrap("store.commit", err)
	}

	s.logger.Debug("stored test run",
		slog.String("run_id", runID.String()),
		slog.String("project", run.projectKey),
		slog.Int("cases", run.totals.Total),
	)
	return models.IngestResult{RunID: runID.String(), Totals: run.totals}, nil
}

func upsertProject(ctx context.Context, tx *sql.Tx, key string, createdAt int64) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", utils.Wrap("store.project_id", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO projects (id, key, created_at) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING`,
		id.String(), key, createdAt,
	); err != nil {
		return "", utils.Wrap("store.upsert_project", err)
	}
	var projectID string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM projects WHERE key = ?`, key).Scan(&projectID); err != nil {
		return "", utils.Wrap("store.project_lookup", err)
	}
	return projectID, nil
}

// FailureHistory returns the most recent failed executions of testName, newest first.
func (s *Store) FailureHistory(ctx context.Context, testName string, limit int) ([]models.FailureDetail, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.readDB.QueryContext(ctx, `SELECT
			tr.id, tr.started_at, tr.env, tr.branch, tr.commit_sha,
			tc.error_message, tc.browser, tc.duration_ms, p.key
		FROM test_cases tc
		JOIN test_runs tr ON tc.run_id = tr.id
		JOIN projects p ON tr.project_id = p.id
		WHERE tc.name = ? AND tc.status = 'failed'
		ORDER BY tr.started_at DESC, tc.id DESC
		LIMIT ?`, testName, limit)
	if err != nil {
		return nil, utils.Wrap("store.failure_history", err)
	}
	defer rows.Close()

	failures := make([]models.FailureDetail, 0)
	for rows.Next() {
		var (
			f         models.FailureDetail
			startedAt int64
			message   sql.NullString
			browser   sql.NullString
		)
		if err := rows.Scan(&f.RunID, &startedAt, &f.Env, &f.Branch, &f.CommitHash,
			&message, &browser, &f.DurationMs, &f.Project); err != nil {
			return nil, utils.Wrap("store.failure_scan", err)
		}
		f.StartedAt = utils.FromUnixMillis(startedAt)
		f.ErrorMessage = message.String
		f.Browser = browser.String
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.Wrap("store.failure_rows", err)
	}
	return failures, nil
}

// ListProjects returns every project key in alphabetical order.
func (s *Store) ListProjects(ctx context.Context) ([]string, error) {
	rows, err := s.readDB.QueryContext(ctx, `SELECT key FROM projects ORDER BY key`)
	if err != nil {
		return nil, utils.Wrap("store.projects", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
