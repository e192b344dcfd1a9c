package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = Migrate(db, DriverSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func newWallet(owner int64, address string) *models.Wallet {
	return &models.Wallet{
		ID:                  uuid.NewString(),
		OwnerID:             owner,
		ChainID:             1,
		Address:             address,
		EncryptedPrivateKey: "sealed",
		Name:                models.DefaultWalletName,
	}
}

func TestMigrateTwice(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db, DriverSQLite); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("postgres", ""); err == nil {
		t.Fatal("Open accepted an unsupported driver")
	}
}

func TestJobsLatest(t *testing.T) {
	ctx := context.Background()
	jobs := NewJobs(openTestDB(t))
	base := time.UnixMilli(1_700_000_000_000)

	first := &models.Job{ID: uuid.NewString(), OwnerID: 7, Action: models.JobEnterWalletName, Status: models.JobPending, Payload: `{"a":1}`, CreatedAt: base}
	second := &models.Job{ID: uuid.NewString(), OwnerID: 7, Action: models.JobUpdateCredential, Status: models.JobPending, Payload: `{}`, Cleanup: []int{10, 11}, CreatedAt: base.Add(time.Second)}
	other := &models.Job{ID: uuid.NewString(), OwnerID: 8, Action: models.JobEnterWalletName, Status: models.JobPending, Payload: `{}`, CreatedAt: base.Add(time.Minute)}
	for _, j := range []*models.Job{first, second, other} {
		if err := jobs.Create(ctx, j); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := jobs.Latest(ctx, 7, models.JobPending)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != second.ID || got.Action != models.JobUpdateCredential {
		t.Errorf("Latest = %+v, want the second job", got)
	}
	if len(got.Cleanup) != 2 || got.Cleanup[0] != 10 {
		t.Errorf("Cleanup = %v", got.Cleanup)
	}
	if !got.CreatedAt.Equal(second.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, second.CreatedAt)
	}

	if err = jobs.UpdateStatus(ctx, second.ID, models.JobPending, models.JobDone); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err = jobs.UpdateStatus(ctx, second.ID, models.JobPending, models.JobCancelled); !errors.Is(err, ErrNotFound) {
		t.Errorf("second UpdateStatus err = %v, want ErrNotFound", err)
	}

	got, err = jobs.Latest(ctx, 7, models.JobPending)
	if err != nil || got.ID != first.ID {
		t.Errorf("Latest after done = (%v, %v), want first job", got, err)
	}

	if _, err = jobs.Latest(ctx, 9, models.JobPending); !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest for unknown owner err = %v", err)
	}
}

func TestWalletsFirstIsDefault(t *testing.T) {
	ctx := context.Background()
	wallets := NewWallets(openTestDB(t))

	w1, created, err := wallets.CreateOrRename(ctx, newWallet(1, "0xaaa"))
	if err != nil || !created {
		t.Fatalf("CreateOrRename = (%v, %v)", created, err)
	}
	if !w1.IsDefault {
		t.Error("first wallet is not default")
	}

	w2, _, err := wallets.CreateOrRename(ctx, newWallet(1, "0xbbb"))
	if err != nil {
		t.Fatalf("CreateOrRename: %v", err)
	}
	if w2.IsDefault {
		t.Error("second wallet became default")
	}

	renamed := newWallet(1, "0xaaa")
	renamed.Name = "Main"
	got, created, err := wallets.CreateOrRename(ctx, renamed)
	if err != nil {
		t.Fatalf("CreateOrRename: %v", err)
	}
	if created || got.ID != w1.ID || got.Name != "Main" {
		t.Errorf("same address should rename, got created=%v %+v", created, got)
	}

	list, err := wallets.List(ctx, 1)
	if err != nil || len(list) != 2 {
		t.Fatalf("List = (%d, %v)", len(list), err)
	}
}

func TestWalletsOneDefaultPerOwner(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	wallets := NewWallets(db)

	if _, _, err := wallets.CreateOrRename(ctx, newWallet(8, "0xaaa")); err != nil {
		t.Fatalf("CreateOrRename: %v", err)
	}

	// a create that read "no default" before the first one committed
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()
	late := newWallet(8, "0xbbb")
	late.IsDefault = true
	if err = wallets.insert(ctx, tx, late); !isUniqueViolation(err) {
		t.Fatalf("second default insert = %v, want unique violation", err)
	}
	_ = tx.Rollback()

	// another owner keeps its own default
	other, _, err := wallets.CreateOrRename(ctx, newWallet(9, "0xaaa"))
	if err != nil || !other.IsDefault {
		t.Fatalf("CreateOrRename other owner = (%+v, %v)", other, err)
	}

	var defaults int
	if err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM wallets WHERE owner_id = 8 AND is_default = 1").Scan(&defaults); err != nil {
		t.Fatalf("count defaults: %v", err)
	}
	if defaults != 1 {
		t.Errorf("owner has %d default wallets, want 1", defaults)
	}
}

func TestWalletsSetDefault(t *testing.T) {
	ctx := context.Background()
	wallets := NewWallets(openTestDB(t))

	var ids []string
	for _, addr := range []string{"0x1", "0x2", "0x3"} {
		w, _, err := wallets.CreateOrRename(ctx, newWallet(5, addr))
		if err != nil {
			t.Fatalf("CreateOrRename: %v", err)
		}
		ids = append(ids, w.ID)
	}
	if _, _, err := wallets.CreateOrRename(ctx, newWallet(6, "0x1")); err != nil {
		t.Fatalf("CreateOrRename: %v", err)
	}

	for _, id := range []string{ids[2], ids[0], ids[1], ids[1]} {
		if err := wallets.SetDefault(ctx, 5, id); err != nil {
			t.Fatalf("SetDefault(%s): %v", id, err)
		}
		list, err := wallets.List(ctx, 5)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		var defaults []string
		for _, w := range list {
			if w.IsDefault {
				defaults = append(defaults, w.ID)
			}
		}
		if len(defaults) != 1 || defaults[0] != id {
			t.Errorf("defaults after SetDefault(%s) = %v", id, defaults)
		}
	}

	if err := wallets.SetDefault(ctx, 5, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetDefault(missing) err = %v", err)
	}
	if d, err := wallets.FindDefault(ctx, 5); err != nil || d.ID != ids[1] {
		t.Errorf("failed SetDefault changed the default: (%v, %v)", d, err)
	}
	if d, err := wallets.FindDefault(ctx, 6); err != nil || !d.IsDefault {
		t.Errorf("other owner lost its default: (%v, %v)", d, err)
	}
}

func TestWalletsDelete(t *testing.T) {
	ctx := context.Background()
	wallets := NewWallets(openTestDB(t))

	def, _, _ := wallets.CreateOrRename(ctx, newWallet(3, "0x1"))
	other, _, _ := wallets.CreateOrRename(ctx, newWallet(3, "0x2"))

	if err := wallets.Delete(ctx, 3, def.ID); !errors.Is(err, ErrDefaultWallet) {
		t.Fatalf("Delete(default) err = %v, want ErrDefaultWallet", err)
	}
	if err := wallets.Delete(ctx, 3, other.ID); err != nil {
		t.Fatalf("Delete(other): %v", err)
	}
	if err := wallets.Delete(ctx, 3, def.ID); err != nil {
		t.Fatalf("Delete(last default): %v", err)
	}
	if err := wallets.Delete(ctx, 3, def.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(gone) err = %v", err)
	}
	if _, err := wallets.FindDefault(ctx, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindDefault err = %v", err)
	}
}

func TestUserBots(t *testing.T) {
	ctx := context.Background()
	users := NewUserBots(openTestDB(t))

	if _, err := users.Find(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find err = %v", err)
	}
	for _, account := range []string{"acc-1", "acc-2"} {
		if err := users.Save(ctx, &models.UserBot{TelegramUserID: 1, AccountID: account, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	u, err := users.Find(ctx, 1)
	if err != nil || u.AccountID != "acc-2" {
		t.Errorf("Find = (%+v, %v)", u, err)
	}
}
