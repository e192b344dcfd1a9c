package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/repository"
	"github.com/sirupsen/logrus/hooks/test"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type importPayload struct {
	EditMessageID int `json:"editMessageId"`
}

func newTestStore(t *testing.T) (*Store, *repository.Jobs, *clock) {
	t.Helper()
	db, err := repository.Open(repository.DriverSQLite, filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = repository.Migrate(db, repository.DriverSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	repo := repository.NewJobs(db)
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	logger, _ := test.NewNullLogger()
	return NewStore(repo, logger, WithClock(c.now)), repo, c
}

func TestResolveWithinWindow(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	opened, err := store.Open(ctx, 1, models.JobImportDefiWallets, importPayload{EditMessageID: 40}, 41)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	c.advance(29*time.Minute + 59*time.Second)

	var seen importPayload
	job, err := store.Resolve(ctx, 1, func(_ context.Context, job *models.Job) models.JobStatus {
		seen, _ = Payload[importPayload](job)
		return models.JobDone
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if job.ID != opened.ID || job.Status != models.JobDone {
		t.Errorf("Resolve = %+v", job)
	}
	if seen.EditMessageID != 40 {
		t.Errorf("payload = %+v", seen)
	}

	if _, err = store.Current(ctx, 1); !errors.Is(err, ErrNoJob) {
		t.Errorf("Current after done err = %v, want ErrNoJob", err)
	}
}

func TestResolveAfterWindowCancels(t *testing.T) {
	ctx := context.Background()
	store, repo, c := newTestStore(t)

	opened, err := store.Open(ctx, 1, models.JobEnterWalletName, map[string]string{"walletId": "w"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	c.advance(DefaultTTL)

	called := false
	job, err := store.Resolve(ctx, 1, func(context.Context, *models.Job) models.JobStatus {
		called = true
		return models.JobDone
	})
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("Resolve err = %v, want ErrExpired", err)
	}
	if called {
		t.Error("handler ran for an expired job")
	}
	if job == nil || job.Status != models.JobCancelled {
		t.Errorf("job = %+v", job)
	}

	stored, err := repo.Find(ctx, opened.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if stored.Status != models.JobCancelled {
		t.Errorf("stored status = %v, want cancelled", stored.Status)
	}
}

func TestResolveValidationFailureKeepsPending(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	opened, _ := store.Open(ctx, 2, models.JobUpdateCredential, nil)

	job, err := store.Resolve(ctx, 2, func(context.Context, *models.Job) models.JobStatus {
		return models.JobPending
	})
	if err != nil || job.Status != models.JobPending {
		t.Fatalf("Resolve = (%+v, %v)", job, err)
	}

	current, err := store.Current(ctx, 2)
	if err != nil || current.ID != opened.ID {
		t.Errorf("Current = (%+v, %v), want the same job", current, err)
	}
}

func TestOpenMergesCleanupOfPreviousJob(t *testing.T) {
	ctx := context.Background()
	store, repo, c := newTestStore(t)

	first, err := store.Open(ctx, 3, models.JobImportDefiWallets, importPayload{EditMessageID: 1}, 100)
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}
	c.advance(time.Second)
	second, err := store.Open(ctx, 3, models.JobImportDefiWallets, importPayload{EditMessageID: 1}, 101)
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}

	if len(second.Cleanup) != 2 || second.Cleanup[0] != 100 || second.Cleanup[1] != 101 {
		t.Errorf("second cleanup = %v, want [100 101]", second.Cleanup)
	}

	prev, _ := repo.Find(ctx, first.ID)
	if prev.Status != models.JobCancelled {
		t.Errorf("first job status = %v, want cancelled", prev.Status)
	}

	current, err := store.Current(ctx, 3)
	if err != nil || current.ID != second.ID {
		t.Fatalf("Current = (%+v, %v)", current, err)
	}
	if len(current.Cleanup) != 2 {
		t.Errorf("stored cleanup = %v", current.Cleanup)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	if _, err := store.Cancel(ctx, 4); !errors.Is(err, ErrNoJob) {
		t.Fatalf("Cancel err = %v", err)
	}
	_, _ = store.Open(ctx, 4, models.JobUpdateProfile, nil, 5)
	job, err := store.Cancel(ctx, 4)
	if err != nil || job.Status != models.JobCancelled {
		t.Fatalf("Cancel = (%+v, %v)", job, err)
	}
	if _, err = store.Current(ctx, 4); !errors.Is(err, ErrNoJob) {
		t.Errorf("Current err = %v", err)
	}
}

func TestMergeIDs(t *testing.T) {
	got := mergeIDs([]int{1, 2, 0}, []int{2, 3})
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("mergeIDs = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mergeIDs = %v, want %v", got, want)
		}
	}
}

func TestPayloadMismatch(t *testing.T) {
	job := &models.Job{Action: models.JobImportDefiWallets, Payload: `"text"`}
	if _, err := Payload[importPayload](job); !errors.Is(err, ErrPayload) {
		t.Errorf("Payload = %v, want ErrPayload", err)
	}
}
