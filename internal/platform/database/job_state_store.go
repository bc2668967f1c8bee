package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordqueue/internal/platform/logger"
	"github.com/phrazzld/wordqueue/internal/store"
	"github.com/phrazzld/wordqueue/internal/task"
)

const jobColumns = `id, kind, state, payload, progress_current, progress_total,
	result, error_message, result_ignored, created_at, updated_at`

// jobEntity names job states in store errors.
const jobEntity = "job_state"

// JobStateStore implements task.StateStore on a SQL database, so job state
// survives a restart and can be recovered.
type JobStateStore struct {
	db  *DB
	now func() time.Time
}

var _ task.StateStore = (*JobStateStore)(nil)

// NewJobStateStore creates a new JobStateStore.
func NewJobStateStore(db *DB) *JobStateStore {
	return &JobStateStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create implements task.StateStore.
func (s *JobStateStore) Create(ctx context.Context, job *task.Job) error {
	if err := job.State.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO job_states (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.db.ExecContext(ctx, query, jobArgs(job)...)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", task.ErrDuplicateJob, job.ID)
		}
		logger.FromContext(ctx).Error("failed to save job", "job_id", job.ID, "error", err)
		return store.NewStoreError(jobEntity, "create", "failed to save job", MapError(err))
	}
	return nil
}

// Get implements task.StateStore.
func (s *JobStateStore) Get(ctx context.Context, id uuid.UUID) (*task.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM job_states WHERE id = $1`, id.String())

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", task.ErrJobNotFound, id)
		}
		return nil, store.NewStoreError(jobEntity, "get", "failed to get job", MapError(err))
	}
	return job, nil
}

// SetState implements task.StateStore. The transition is validated against
// the stored row and written back in the same transaction.
func (s *JobStateStore) SetState(ctx context.Context, id uuid.UUID, update task.StateUpdate) error {
	selectQuery := `SELECT ` + jobColumns + ` FROM job_states WHERE id = $1`
	if s.db.Dialect() == DialectPostgres {
		selectQuery += " FOR UPDATE"
	}

	return store.RunInTransaction(ctx, s.db.DB, func(ctx context.Context, tx *sql.Tx) error {
		job, err := scanJob(tx.QueryRowContext(ctx, selectQuery, id.String()))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", task.ErrJobNotFound, id)
			}
			return store.NewStoreError(jobEntity, "update", "failed to load job", MapError(err))
		}

		if err := job.Apply(update, s.now()); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE job_states
			SET state = $1, progress_current = $2, progress_total = $3,
				result = $4, error_message = $5, result_ignored = $6, updated_at = $7
			WHERE id = $8`,
			string(job.State),
			progressCurrent(job.Progress),
			progressTotal(job.Progress),
			nullableJSON(job.Result),
			nullableString(job.Error),
			job.ResultIgnored,
			job.UpdatedAt,
			job.ID.String(),
		)
		if err != nil {
			return store.NewStoreError(jobEntity, "update", "failed to write job state", MapError(err))
		}
		return nil
	})
}

// ListByState implements task.StateStore.
func (s *JobStateStore) ListByState(ctx context.Context, state task.State) ([]*task.Job, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM job_states WHERE state = $1 ORDER BY created_at ASC`,
		string(state))
	if err != nil {
		return nil, store.NewStoreError(jobEntity, "list", "failed to list jobs", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var jobs []*task.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError(jobEntity, "list", "failed to read jobs", MapError(err))
	}
	return jobs, nil
}

// DeleteTerminalBefore implements task.StateStore.
func (s *JobStateStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM job_states WHERE state IN ($1, $2) AND updated_at < $3`,
		string(task.StateSuccess), string(task.StateFailure), cutoff.UTC())
	if err != nil {
		return 0, store.NewStoreError(jobEntity, "delete", "failed to delete expired jobs", MapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*task.Job, error) {
	var (
		job             task.Job
		id              string
		kind, state     string
		payload, result sql.NullString
		errMsg          sql.NullString
		current, total  sql.NullInt64
	)

	if err := row.Scan(&id, &kind, &state, &payload, &current, &total,
		&result, &errMsg, &job.ResultIgnored, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid job id %q: %w", id, err)
	}
	parsedState, err := task.ParseState(state)
	if err != nil {
		return nil, err
	}

	job.ID = parsedID
	job.Kind = task.Kind(kind)
	job.State = parsedState
	job.Error = errMsg.String
	if payload.Valid {
		job.Payload = json.RawMessage(payload.String)
	}
	if result.Valid {
		job.Result = json.RawMessage(result.String)
	}
	if current.Valid && total.Valid {
		job.Progress = &task.Progress{Current: int(current.Int64), Total: int(total.Int64)}
	}
	job.CreatedAt = job.CreatedAt.UTC()
	job.UpdatedAt = job.UpdatedAt.UTC()
	return &job, nil
}

func jobArgs(job *task.Job) []any {
	return []any{
		job.ID.String(),
		string(job.Kind),
		string(job.State),
		nullableJSON(job.Payload),
		progressCurrent(job.Progress),
		progressTotal(job.Progress),
		nullableJSON(job.Result),
		nullableString(job.Error),
		job.ResultIgnored,
		job.CreatedAt.UTC(),
		job.UpdatedAt.UTC(),
	}
}

func nullableJSON(raw json.RawMessage) sql.NullString {
	return sql.NullString{String: string(raw), Valid: raw != nil}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func progressCurrent(p *task.Progress) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(p.Current), Valid: true}
}

func progressTotal(p *task.Progress) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(p.Total), Valid: true}
}
