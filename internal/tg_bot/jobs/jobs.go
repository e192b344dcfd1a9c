// Package jobs attributes free-text replies to the question that asked for
// them. A handler that needs typed input opens a Job; the next text message of
// the same user resolves the newest pending Job, provided it is younger than
// the freshness window. Stale jobs are cancelled lazily when that next message
// arrives; nothing sweeps them in the background.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is the freshness window of a pending job.
const DefaultTTL = 30 * time.Minute

var (
	ErrNoJob   = errors.New("no pending job")
	ErrExpired = errors.New("pending job expired")
	// ErrPayload marks a job whose payload no longer decodes.
	ErrPayload = errors.New("malformed job payload")
)

// Repository persists jobs.
type Repository interface {
	Create(ctx context.Context, job *models.Job) error
	Latest(ctx context.Context, ownerID int64, status models.JobStatus) (*models.Job, error)
	UpdateStatus(ctx context.Context, id string, from, to models.JobStatus) error
}

// ResolveFunc handles a reply to job and returns its new status. Returning
// JobPending keeps the job open for another attempt.
type ResolveFunc func(ctx context.Context, job *models.Job) models.JobStatus

// Store runs the job lifecycle on top of a Repository.
type Store struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
	log  logrus.FieldLogger
}

type Option func(*Store)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(repo Repository, log logrus.FieldLogger, opts ...Option) *Store {
	s := &Store{
		repo: repo,
		ttl:  DefaultTTL,
		now:  time.Now,
		log:  log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Open creates a pending job for owner. The previous pending job of the owner,
// if any, is cancelled and its cleanup ids are carried over so its scratch
// messages are still deleted when the new job completes.
func (s *Store) Open(ctx context.Context, ownerID int64, action models.JobAction, payload any, cleanup ...int) (*models.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", action, err)
	}

	job := &models.Job{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Action:    action,
		Status:    models.JobPending,
		Payload:   string(data),
		Cleanup:   cleanup,
		CreatedAt: s.now(),
	}

	prev, err := s.repo.Latest(ctx, ownerID, models.JobPending)
	switch {
	case err == nil:
		job.Cleanup = mergeIDs(prev.Cleanup, cleanup)
		if err = s.repo.UpdateStatus(ctx, prev.ID, models.JobPending, models.JobCancelled); err != nil && !repository.IsErrNotFound(err) {
			return nil, fmt.Errorf("cancel previous job: %w", err)
		}
		s.log.Debugf("job %s (%s) replaced by %s", prev.ID, prev.Action, action)
	case !repository.IsErrNotFound(err):
		return nil, fmt.Errorf("find pending job: %w", err)
	}

	if err = s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// Current returns the newest pending job of owner. A job past the freshness
// window is cancelled and ErrExpired is returned together with it.
func (s *Store) Current(ctx context.Context, ownerID int64) (*models.Job, error) {
	job, err := s.repo.Latest(ctx, ownerID, models.JobPending)
	if err != nil {
		if repository.IsErrNotFound(err) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("find pending job: %w", err)
	}

	if s.now().Sub(job.CreatedAt) >= s.ttl {
		if err = s.repo.UpdateStatus(ctx, job.ID, models.JobPending, models.JobCancelled); err != nil && !repository.IsErrNotFound(err) {
			return nil, fmt.Errorf("expire job: %w", err)
		}
		job.Status = models.JobCancelled
		return job, ErrExpired
	}
	return job, nil
}

// Resolve hands the current job of owner to fn and stores the status fn
// returns.
func (s *Store) Resolve(ctx context.Context, ownerID int64, fn ResolveFunc) (*models.Job, error) {
	job, err := s.Current(ctx, ownerID)
	if err != nil {
		return job, err
	}

	status := fn(ctx, job)
	if status == models.JobPending {
		return job, nil
	}

	if err = s.repo.UpdateStatus(ctx, job.ID, models.JobPending, status); err != nil {
		if repository.IsErrNotFound(err) {
			s.log.Debugf("job %s was closed concurrently", job.ID)
			return job, nil
		}
		return nil, fmt.Errorf("update job %s: %w", job.ID, err)
	}
	job.Status = status
	return job, nil
}

// Cancel abandons the current job of owner. It returns the cancelled job or
// ErrNoJob.
func (s *Store) Cancel(ctx context.Context, ownerID int64) (*models.Job, error) {
	job, err := s.repo.Latest(ctx, ownerID, models.JobPending)
	if err != nil {
		if repository.IsErrNotFound(err) {
			return nil, ErrNoJob
		}
		return nil, fmt.Errorf("find pending job: %w", err)
	}
	if err = s.repo.UpdateStatus(ctx, job.ID, models.JobPending, models.JobCancelled); err != nil && !repository.IsErrNotFound(err) {
		return nil, fmt.Errorf("cancel job: %w", err)
	}
	job.Status = models.JobCancelled
	return job, nil
}

// Payload decodes the payload of job into T.
func Payload[T any](job *models.Job) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(job.Payload), &out); err != nil {
		return out, fmt.Errorf("%w: %s: %w", ErrPayload, job.Action, err)
	}
	return out, nil
}

func mergeIDs(prev, next []int) []int {
	seen := make(map[int]bool, len(prev)+len(next))
	out := make([]int, 0, len(prev)+len(next))
	for _, ids := range [][]int{prev, next} {
		for _, id := range ids {
			if id == 0 || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
