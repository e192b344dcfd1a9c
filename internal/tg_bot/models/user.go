package models

import "time"

// UserBot links a Telegram user to the account that owns the access token they entered.
type UserBot struct {
	TelegramUserID int64     `json:"telegramUserId"` // Telegram user id
	AccountID      string    `json:"accountId"`      // Account id returned by the vault
	CreatedAt      time.Time `json:"createdAt"`
}
