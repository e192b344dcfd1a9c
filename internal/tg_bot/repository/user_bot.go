package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	sq "github.com/Masterminds/squirrel"
)

// UserBots maps Telegram users to vault accounts.
type UserBots struct {
	db *sql.DB
}

func NewUserBots(db *sql.DB) *UserBots {
	return &UserBots{db: db}
}

func (s *UserBots) Find(ctx context.Context, telegramUserID int64) (*models.UserBot, error) {
	var (
		u         models.UserBot
		createdAt int64
	)
	err := sq.Select("telegram_user_id", "account_id", "created_at").
		From("user_bots").
		Where(sq.Eq{"telegram_user_id": telegramUserID}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&u.TelegramUserID, &u.AccountID, &createdAt)
	if err != nil {
		if IsErrNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user bot: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt)
	return &u, nil
}

// Save replaces the mapping of u.TelegramUserID.
func (s *UserBots) Save(ctx context.Context, u *models.UserBot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = sq.Delete("user_bots").
		Where(sq.Eq{"telegram_user_id": u.TelegramUserID}).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("delete user bot: %w", err)
	}
	if _, err = sq.Insert("user_bots").
		Columns("telegram_user_id", "account_id", "created_at").
		Values(u.TelegramUserID, u.AccountID, u.CreatedAt.UnixMilli()).
		RunWith(tx).
		ExecContext(ctx); err != nil {
		return fmt.Errorf("insert user bot: %w", err)
	}
	return tx.Commit()
}
