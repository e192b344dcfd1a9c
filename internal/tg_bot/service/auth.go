package service

import (
	"context"
	"errors"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/repository"
)

// requireAuth starts the access token flow for users without an account
// link. It reports whether the flow was started.
func (b *TgBotServices) requireAuth(ctx context.Context, ev *Event) (bool, error) {
	if !b.settings.AuthRequired {
		return false, nil
	}
	_, err := b.UserBots.Find(ctx, ev.UserID)
	switch {
	case err == nil:
		return false, nil
	case repository.IsErrNotFound(err):
		return true, b.startAuth(ctx, ev)
	default:
		return false, err
	}
}

func (b *TgBotServices) startAuth(ctx context.Context, ev *Event) error {
	text := bold("Sign in") + "\n\nSend the access token shown in your account settings"
	if b.settings.WebsiteURL != "" {
		text += " on " + link(b.settings.WebsiteURL, b.settings.WebsiteURL)
	}
	return b.ask(ctx, ev, models.JobEnterAccessToken, struct{}{}, text+".")
}

func (b *TgBotServices) replyAccessToken(ctx context.Context, ev *Event, _ *models.Job) error {
	if ev.Text == "" {
		return userErrorf("Please send the access token as text.")
	}
	accountID, err := b.Vault.VerifyAccessToken(ctx, ev.Text)
	if errors.Is(err, api.ErrUnauthorized) {
		return userErrorf("This access token is invalid or expired.")
	}
	if err != nil {
		return err
	}
	if err = b.UserBots.Save(ctx, &models.UserBot{
		TelegramUserID: ev.UserID,
		AccountID:      accountID,
		CreatedAt:      b.now(),
	}); err != nil {
		return err
	}
	b.log.WithField("user", ev.UserID).Infof("Linked account %s", accountID)
	b.shortReply(ev, "Signed in.")
	return b.showMenu(ctx, ev, "", callback.Nav{})
}
