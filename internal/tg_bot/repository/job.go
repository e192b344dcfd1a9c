package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	sq "github.com/Masterminds/squirrel"
)

var jobColumns = []string{"id", "owner_id", "action", "status", "payload", "cleanup", "created_at"}

// Jobs stores pending free-text interactions.
type Jobs struct {
	db *sql.DB
}

func NewJobs(db *sql.DB) *Jobs {
	return &Jobs{db: db}
}

// Create inserts job.
func (s *Jobs) Create(ctx context.Context, job *models.Job) error {
	cleanup, err := json.Marshal(nonNil(job.Cleanup))
	if err != nil {
		return fmt.Errorf("marshal cleanup: %w", err)
	}

	_, err = sq.Insert("jobs").
		Columns(jobColumns...).
		Values(job.ID, job.OwnerID, string(job.Action), int(job.Status), job.Payload, string(cleanup), job.CreatedAt.UnixMilli()).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Latest returns the newest job of owner in status.
func (s *Jobs) Latest(ctx context.Context, ownerID int64, status models.JobStatus) (*models.Job, error) {
	row := sq.Select(jobColumns...).
		From("jobs").
		Where(sq.Eq{"owner_id": ownerID, "status": int(status)}).
		OrderBy("created_at DESC", "seq DESC").
		Limit(1).
		RunWith(s.db).
		QueryRowContext(ctx)

	job, err := scanJob(row)
	if err != nil {
		if IsErrNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

// Find returns the job with id.
func (s *Jobs) Find(ctx context.Context, id string) (*models.Job, error) {
	row := sq.Select(jobColumns...).
		From("jobs").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx)

	job, err := scanJob(row)
	if err != nil {
		if IsErrNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

// UpdateStatus moves job id from one status to another. It fails with
// ErrNotFound when the job is no longer in from.
func (s *Jobs) UpdateStatus(ctx context.Context, id string, from, to models.JobStatus) error {
	res, err := sq.Update("jobs").
		Set("status", int(to)).
		Where(sq.Eq{"id": id, "status": int(from)}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanJob(row sq.RowScanner) (*models.Job, error) {
	var (
		job       models.Job
		action    string
		status    int
		cleanup   string
		createdAt int64
	)
	if err := row.Scan(&job.ID, &job.OwnerID, &action, &status, &job.Payload, &cleanup, &createdAt); err != nil {
		return nil, err
	}
	job.Action = models.JobAction(action)
	job.Status = models.JobStatus(status)
	job.CreatedAt = time.UnixMilli(createdAt)
	if cleanup != "" {
		if err := json.Unmarshal([]byte(cleanup), &job.Cleanup); err != nil {
			return nil, fmt.Errorf("unmarshal cleanup: %w", err)
		}
	}
	return &job, nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
