// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps the history of evaluation runs in a SQLite database,
// one row per run and one row per evaluated prompt.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-assistant/pkg/types"
)

// DefaultPath is the database location used when none is configured.
const DefaultPath = "evaluations/history.db"

// timeFormat keeps fractional seconds at a fixed width so stored times sort
// lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNoRuns is returned when the database holds no evaluation runs.
var ErrNoRuns = errors.New("no evaluation runs recorded")

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Run is one row of the runs table.
type Run struct {
	ID          string    `json:"id" yaml:"id"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Model       string    `json:"model" yaml:"model"`
	PromptCount int       `json:"prompt_count" yaml:"prompt_count"`
	ResultCount int       `json:"result_count" yaml:"result_count"`
}

// Finished reports whether FinishRun was called for the run.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// NewStore opens or creates the database at path and creates the schema if
// it does not exist.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	scoreColumns := make([]string, len(types.Criteria))
	for i, c := range types.Criteria {
		scoreColumns[i] = string(c) + " INTEGER"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			model TEXT,
			prompt_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			prompt_id_in_run INTEGER NOT NULL,
			overall_prompt_id INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			final_response TEXT,
			verdict_json TEXT,
			failure_json TEXT,
			error TEXT,
			` + strings.Join(scoreColumns, ",\n\t\t\t") + `
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun inserts a new run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, model string, promptCount int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, model, prompt_count) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(timeFormat), model, promptCount,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's finish time.
func (s *Store) FinishRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFormat), runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finishing run %s: run not found", runID)
	}
	return nil
}

// RecordResult stores one evaluated prompt. Verdict scores are copied into
// their own columns so averages can be computed in SQL.
func (s *Store) RecordResult(ctx context.Context, runID string, rec types.EvalRecord) error {
	var verdictJSON, failureJSON, errText sql.NullString
	scores := make([]any, len(types.Criteria))

	if rec.Failed() {
		errText = sql.NullString{String: rec.ErrorDuringProcessing, Valid: true}
	}
	if ev := rec.CriticEvaluation; ev != nil {
		switch {
		case ev.Verdict != nil:
			data, err := json.Marshal(ev.Verdict)
			if err != nil {
				return fmt.Errorf("marshaling verdict: %w", err)
			}
			verdictJSON = sql.NullString{String: string(data), Valid: true}
			for i, c := range types.Criteria {
				scores[i] = ev.Verdict.Score(c)
			}
		case ev.Failure != nil:
			data, err := json.Marshal(ev.Failure)
			if err != nil {
				return fmt.Errorf("marshaling extraction failure: %w", err)
			}
			failureJSON = sql.NullString{String: string(data), Valid: true}
		}
	}

	columns := []string{"run_id", "prompt_id_in_run", "overall_prompt_id", "prompt", "final_response", "verdict_json", "failure_json", "error"}
	args := []any{runID, rec.PromptIDInRun, rec.OverallPromptID, rec.UserPrompt, rec.AgentFinalResponse, verdictJSON, failureJSON, errText}
	for i, c := range types.Criteria {
		columns = append(columns, string(c))
		args = append(args, scores[i])
	}

	query := fmt.Sprintf(`INSERT INTO results (%s) VALUES (%s)`,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting result for prompt %d: %w", rec.OverallPromptID, err)
	}
	return nil
}

// Runs returns all runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.started_at, r.finished_at, r.model, r.prompt_count,
			(SELECT count(*) FROM results WHERE run_id = r.id)
		 FROM runs r ORDER BY r.started_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given ID. An empty ID selects the most
// recent run; ErrNoRuns is returned when there is none.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	query := `SELECT r.id, r.started_at, r.finished_at, r.model, r.prompt_count,
			(SELECT count(*) FROM results WHERE run_id = r.id)
		 FROM runs r `
	var row *sql.Row
	if runID == "" {
		row = s.db.QueryRowContext(ctx, query+`ORDER BY r.started_at DESC, r.rowid DESC LIMIT 1`)
	} else {
		row = s.db.QueryRowContext(ctx, query+`WHERE r.id = ?`, runID)
	}

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		if runID == "" {
			return Run{}, ErrNoRuns
		}
		return Run{}, fmt.Errorf("run %s not found", runID)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
		model    sql.NullString
		count    sql.NullInt64
	)
	if err := sc.Scan(&run.ID, &started, &finished, &model, &count, &run.ResultCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	run.StartedAt, _ = time.Parse(timeFormat, started)
	if finished.Valid {
		run.FinishedAt, _ = time.Parse(timeFormat, finished.String)
	}
	run.Model = model.String
	run.PromptCount = int(count.Int64)
	return run, nil
}

// Results returns a run's records in the order they were recorded.
func (s *Store) Results(ctx context.Context, runID string) ([]types.EvalRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT prompt_id_in_run, overall_prompt_id, prompt, final_response, verdict_json, failure_json, error
		 FROM results WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var records []types.EvalRecord
	for rows.Next() {
		var (
			rec                     types.EvalRecord
			final, verdict, failure sql.NullString
			errText                 sql.NullString
		)
		if err := rows.Scan(&rec.PromptIDInRun, &rec.OverallPromptID, &rec.UserPrompt, &final, &verdict, &failure, &errText); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		rec.AgentFinalResponse = final.String
		rec.ErrorDuringProcessing = errText.String

		switch {
		case verdict.Valid:
			var v types.CriticVerdict
			if err := json.Unmarshal([]byte(verdict.String), &v); err != nil {
				return nil, fmt.Errorf("decoding verdict for prompt %d: %w", rec.OverallPromptID, err)
			}
			rec.CriticEvaluation = &types.CriticResult{Verdict: &v}
		case failure.Valid:
			var f types.ExtractionFailure
			if err := json.Unmarshal([]byte(failure.String), &f); err != nil {
				return nil, fmt.Errorf("decoding failure for prompt %d: %w", rec.OverallPromptID, err)
			}
			rec.CriticEvaluation = &types.CriticResult{Failure: &f}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Averages returns the mean of each criterion over a run's verdicts and the
// number of verdicts averaged. Criteria with no scores are absent.
func (s *Store) Averages(ctx context.Context, runID string) (map[types.Criterion]float64, int, error) {
	exprs := make([]string, len(types.Criteria))
	for i, c := range types.Criteria {
		exprs[i] = "AVG(" + string(c) + ")"
	}
	query := fmt.Sprintf(`SELECT %s, COUNT(verdict_json) FROM results WHERE run_id = ?`, strings.Join(exprs, ", "))

	avgs := make([]sql.NullFloat64, len(types.Criteria))
	dest := make([]any, 0, len(avgs)+1)
	for i := range avgs {
		dest = append(dest, &avgs[i])
	}
	var n int
	dest = append(dest, &n)

	if err := s.db.QueryRowContext(ctx, query, runID).Scan(dest...); err != nil {
		return nil, 0, fmt.Errorf("computing averages: %w", err)
	}

	out := make(map[types.Criterion]float64)
	for i, c := range types.Criteria {
		if avgs[i].Valid {
			out[c] = avgs[i].Float64
		}
	}
	return out, n, nil
}
