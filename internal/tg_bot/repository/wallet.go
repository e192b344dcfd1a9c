package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	sq "github.com/Masterminds/squirrel"
)

// ErrDefaultWallet is returned when deleting the default wallet while the
// owner still has other wallets.
var ErrDefaultWallet = errors.New("the default wallet can not be deleted")

var walletColumns = []string{"id", "owner_id", "chain_id", "address", "encrypted_private_key", "name", "is_default"}

// Wallets stores the EVM wallets of Telegram users.
type Wallets struct {
	db *sql.DB
}

func NewWallets(db *sql.DB) *Wallets {
	return &Wallets{db: db}
}

// CreateOrRename stores w. When the owner already has a wallet with the same
// chain and address only its name is updated. A new wallet becomes the
// default when the owner has none. The stored wallet is returned together
// with whether it was created.
func (s *Wallets) CreateOrRename(ctx context.Context, w *models.Wallet) (*models.Wallet, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanWallet(sq.Select(walletColumns...).
		From("wallets").
		Where(sq.Eq{"owner_id": w.OwnerID, "chain_id": w.ChainID, "address": w.Address}).
		RunWith(tx).
		QueryRowContext(ctx))
	switch {
	case err == nil:
		if _, err = sq.Update("wallets").
			Set("name", w.Name).
			Where(sq.Eq{"id": existing.ID}).
			RunWith(tx).
			ExecContext(ctx); err != nil {
			return nil, false, fmt.Errorf("rename wallet: %w", err)
		}
		existing.Name = w.Name
		if err = tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("commit: %w", err)
		}
		return existing, false, nil
	case !IsErrNotFound(err):
		return nil, false, fmt.Errorf("select wallet: %w", err)
	}

	// the unique default index admits one default row per owner, so a
	// concurrent create that lost the race stores a plain wallet instead
	w.IsDefault = true
	err = s.insert(ctx, tx, w)
	if isUniqueViolation(err) {
		w.IsDefault = false
		err = s.insert(ctx, tx, w)
	}
	if err != nil {
		return nil, false, fmt.Errorf("insert wallet: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return w, true, nil
}

func (s *Wallets) insert(ctx context.Context, tx *sql.Tx, w *models.Wallet) error {
	_, err := sq.Insert("wallets").
		Columns(walletColumns...).
		Values(w.ID, w.OwnerID, w.ChainID, w.Address, w.EncryptedPrivateKey, w.Name, w.IsDefault).
		RunWith(tx).
		ExecContext(ctx)
	return err
}

// Find returns wallet id of owner.
func (s *Wallets) Find(ctx context.Context, ownerID int64, id string) (*models.Wallet, error) {
	return s.findOne(ctx, sq.Eq{"owner_id": ownerID, "id": id})
}

// FindDefault returns the default wallet of owner.
func (s *Wallets) FindDefault(ctx context.Context, ownerID int64) (*models.Wallet, error) {
	return s.findOne(ctx, sq.Eq{"owner_id": ownerID, "is_default": true})
}

func (s *Wallets) findOne(ctx context.Context, where sq.Eq) (*models.Wallet, error) {
	w, err := scanWallet(sq.Select(walletColumns...).
		From("wallets").
		Where(where).
		Limit(1).
		RunWith(s.db).
		QueryRowContext(ctx))
	if err != nil {
		if IsErrNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select wallet: %w", err)
	}
	return w, nil
}

// List returns the wallets of owner in creation order.
func (s *Wallets) List(ctx context.Context, ownerID int64) ([]*models.Wallet, error) {
	rows, err := sq.Select(walletColumns...).
		From("wallets").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("seq").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// Rename sets the name of wallet id.
func (s *Wallets) Rename(ctx context.Context, ownerID int64, id, name string) error {
	if _, err := sq.Update("wallets").
		Set("name", name).
		Where(sq.Eq{"owner_id": ownerID, "id": id}).
		RunWith(s.db).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("rename wallet: %w", err)
	}
	return nil
}

// SetDefault makes wallet id the only default wallet of owner. Both steps
// run in one transaction.
func (s *Wallets) SetDefault(ctx context.Context, ownerID int64, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = sq.Update("wallets").
		Set("is_default", false).
		Where(sq.Eq{"owner_id": ownerID}).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("clear default wallet: %w", err)
	}

	res, err := sq.Update("wallets").
		Set("is_default", true).
		Where(sq.Eq{"owner_id": ownerID, "id": id}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("set default wallet: %w", err)
	}
	if err = expectRows(res); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes wallet id. The default wallet may only be deleted when it
// is the last wallet of the owner.
func (s *Wallets) Delete(ctx context.Context, ownerID int64, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	w, err := scanWallet(sq.Select(walletColumns...).
		From("wallets").
		Where(sq.Eq{"owner_id": ownerID, "id": id}).
		RunWith(tx).
		QueryRowContext(ctx))
	if err != nil {
		if IsErrNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("select wallet: %w", err)
	}

	if w.IsDefault {
		var total int
		if err = sq.Select("COUNT(*)").
			From("wallets").
			Where(sq.Eq{"owner_id": ownerID}).
			RunWith(tx).
			QueryRowContext(ctx).
			Scan(&total); err != nil {
			return fmt.Errorf("count wallets: %w", err)
		}
		if total > 1 {
			return ErrDefaultWallet
		}
	}

	if _, err = sq.Delete("wallets").
		Where(sq.Eq{"owner_id": ownerID, "id": id}).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return tx.Commit()
}

func scanWallet(row sq.RowScanner) (*models.Wallet, error) {
	var w models.Wallet
	if err := row.Scan(&w.ID, &w.OwnerID, &w.ChainID, &w.Address, &w.EncryptedPrivateKey, &w.Name, &w.IsDefault); err != nil {
		return nil, err
	}
	return &w, nil
}

func expectRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
