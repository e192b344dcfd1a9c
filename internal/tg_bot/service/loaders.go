package service

import (
	"bytes"
	"context"
	"errors"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/cache"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
)

// The loaders below read vault aggregates through the response cache. Every
// write to the vault is followed by a forced load of the same key.

func (b *TgBotServices) credentials(ctx context.Context, address string, force bool) ([]models.Credential, error) {
	return cache.Load(ctx, b.Cache, cache.Web2LoginsKey(address), force, func(ctx context.Context) ([]models.Credential, error) {
		return b.Vault.GetCredentials(ctx, address)
	})
}

func (b *TgBotServices) defiWallets(ctx context.Context, address string, force bool) ([]models.DefiWallet, error) {
	return cache.Load(ctx, b.Cache, cache.DefiWalletsKey(address), force, func(ctx context.Context) ([]models.DefiWallet, error) {
		return b.Vault.GetDefiWallets(ctx, address)
	})
}

func (b *TgBotServices) profile(ctx context.Context, address string, force bool) (*models.Profile, error) {
	return cache.Load(ctx, b.Cache, cache.ProfileKey(address), force, func(ctx context.Context) (*models.Profile, error) {
		return b.Vault.GetProfile(ctx, address)
	})
}

func (b *TgBotServices) subscription(ctx context.Context, address string, force bool) (models.Subscription, error) {
	return cache.Load(ctx, b.Cache, cache.SubscriptionKey(address), force, func(ctx context.Context) (models.Subscription, error) {
		return b.Blockchain.Subscription(ctx, b.chain.ID, address)
	})
}

func findCredential(list []models.Credential, id string) (models.Credential, error) {
	for _, c := range list {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Credential{}, errNotFound("credential", id)
}

func findDefiWallet(list []models.DefiWallet, id string) (models.DefiWallet, error) {
	for _, d := range list {
		if d.ID == id {
			return d, nil
		}
	}
	return models.DefiWallet{}, errNotFound("defi wallet", id)
}

// readDocument downloads and parses the spreadsheet attached to a reply.
func (b *TgBotServices) readDocument(ctx context.Context, ev *Event, columns []api.Column) ([]map[string]string, error) {
	if ev.Document == nil {
		return nil, userErrorf("Please send the filled template as an .xlsx file.")
	}
	data, err := b.Files.Download(ctx, ev.Document.FileID, ev.Document.FileSize)
	if errors.Is(err, api.ErrDocumentTooLarge) {
		return nil, userErrorf("The file is too large.")
	}
	if err != nil {
		return nil, err
	}
	rows, err := api.ReadSheet(bytes.NewReader(data), columns)
	if errors.Is(err, api.ErrEmptySheet) {
		return nil, userErrorf("The file has no rows to import.")
	}
	if err != nil {
		return nil, userErrorf("The file is not a valid .xlsx spreadsheet.")
	}
	return rows, nil
}
