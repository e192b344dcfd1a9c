package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/jobs"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/repository"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/secret"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	maxNameLength = 32
	// secretTTL is how long an exported private key stays in the chat.
	secretTTL = time.Minute
	// balanceWorkers bounds the concurrent RPC calls of one wallet list.
	balanceWorkers = 4
)

type walletPayload struct {
	WalletID string `json:"walletId"`
}

// balances reads the native balance of every wallet. A failed read is shown
// as unavailable instead of failing the whole screen.
func (b *TgBotServices) balances(ctx context.Context, wallets []*models.Wallet) []string {
	out := make([]string, len(wallets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceWorkers)
	for i, w := range wallets {
		i, w := i, w
		g.Go(func() error {
			out[i] = b.balance(gctx, w)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (b *TgBotServices) balance(ctx context.Context, w *models.Wallet) string {
	chain, err := b.settings.Chains.Get(w.ChainID)
	if err != nil {
		return "n/a"
	}
	bal, err := b.Blockchain.Balance(ctx, w.ChainID, w.Address)
	if err != nil {
		b.log.WithError(err).Warnf("Failed to read balance of %s", w.Address)
		return "n/a"
	}
	return bal.Truncate(6).String() + " " + chain.Native.Symbol
}

func (b *TgBotServices) showWallets(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	wallets, err := b.Wallets.List(ctx, ev.UserID)
	if err != nil {
		return err
	}
	balances := b.balances(ctx, wallets)

	text := []string{bold(fmt.Sprintf("%s Wallets (%d)", constant.EMOJI_WALLET, len(wallets))), ""}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(wallets)+2)
	if len(wallets) == 0 {
		text = append(text, "You have no wallets yet. Create one to get started.")
	}
	for i, w := range wallets {
		name := w.Name
		if w.IsDefault {
			name = constant.EMOJI_STAR + " " + name
		}
		text = append(text, bold(name), code(shortenAddress(w.Address))+" · "+balances[i], "")
		rows = append(rows, row(button(name, callback.ActionSelectWallet, w.ID)))
	}
	rows = append(rows,
		row(button(constant.BUTTON_TEXT_CREATE_WALLET, callback.ActionCreateWallet)),
		row(button(constant.BUTTON_TEXT_REFRESH, callback.ActionRefreshWallets)),
	)
	return b.render(ev, nav, lines(text...), b.keyboard(menuNav(nav), rows...))
}

func (b *TgBotServices) refreshWallets(ctx context.Context, ev *Event, params string, nav callback.Nav) error {
	if err := b.showWallets(ctx, ev, params, nav); err != nil {
		return err
	}
	b.refreshed(ev)
	return nil
}

func (b *TgBotServices) showCreateWallet(_ context.Context, ev *Event, _ string, nav callback.Nav) error {
	markup := b.keyboard(childNav(nav, callback.To(callback.ActionWallets)),
		row(button(constant.BUTTON_TEXT_CONNECT_WALLET, callback.ActionConnectWallet)),
		row(button(constant.BUTTON_TEXT_GENERATE_WALLET, callback.ActionGenerateWallet)),
	)
	text := lines(
		bold(constant.BUTTON_TEXT_CREATE_WALLET),
		"",
		"Connect an existing wallet with its private key, or generate a new one.",
	)
	return b.render(ev, nav, text, markup)
}

func (b *TgBotServices) connectWallet(ctx context.Context, ev *Event, _ string, _ callback.Nav) error {
	return b.ask(ctx, ev, models.JobEnterWalletPrivateKey, struct{}{},
		"Send the private key of the wallet to connect.\nYour message is deleted right after it is read.")
}

func (b *TgBotServices) replyWalletPrivateKey(ctx context.Context, ev *Event, _ *models.Job) error {
	key, address, err := api.ParsePrivateKey(ev.Text)
	if err != nil {
		return userErrorf("This is not a valid private key.")
	}
	return b.saveWallet(ctx, ev, key, address)
}

func (b *TgBotServices) generateWallet(ctx context.Context, ev *Event, _ string, _ callback.Nav) error {
	key, address, err := api.GenerateKey()
	if err != nil {
		return err
	}
	return b.saveWallet(ctx, ev, key, address)
}

// saveWallet stores a new wallet with its key sealed for this owner and asks
// for its name.
func (b *TgBotServices) saveWallet(ctx context.Context, ev *Event, key, address string) error {
	existing, err := b.Wallets.List(ctx, ev.UserID)
	if err != nil {
		return err
	}
	for _, w := range existing {
		if w.ChainID == b.chain.ID && strings.EqualFold(w.Address, address) {
			return userErrorf("This wallet is already connected as %s.", w.Name)
		}
	}

	enc, err := secret.Encrypt(key, b.settings.ServerKey, address, ev.UserID)
	if err != nil {
		return err
	}
	w, _, err := b.Wallets.CreateOrRename(ctx, &models.Wallet{
		ID:                  uuid.NewString(),
		OwnerID:             ev.UserID,
		ChainID:             b.chain.ID,
		Address:             address,
		EncryptedPrivateKey: enc,
		Name:                models.DefaultWalletName,
	})
	if err != nil {
		return err
	}
	b.log.WithField("user", ev.UserID).Infof("Wallet %s created, default: %t", w.ID, w.IsDefault)

	msg := "Wallet " + shortenAddress(address) + " added."
	if w.IsDefault {
		msg = "Wallet " + shortenAddress(address) + " added and set as default."
	}
	b.shortReply(ev, msg)
	return b.ask(ctx, ev, models.JobEnterWalletName, walletPayload{WalletID: w.ID},
		"Send a name for wallet "+code(address)+".")
}

func (b *TgBotServices) replyWalletName(ctx context.Context, ev *Event, job *models.Job) error {
	name, err := validateName(ev.Text)
	if err != nil {
		return err
	}
	p, err := jobs.Payload[walletPayload](job)
	if err != nil {
		return err
	}
	if _, err = b.Wallets.Find(ctx, ev.UserID, p.WalletID); err != nil {
		return err
	}
	if err = b.Wallets.Rename(ctx, ev.UserID, p.WalletID, name); err != nil {
		return err
	}
	return b.showWallet(ctx, ev, p.WalletID, callback.Nav{})
}

func (b *TgBotServices) showWallet(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	w, err := b.Wallets.Find(ctx, ev.UserID, id)
	if err != nil {
		return err
	}
	chain, err := b.settings.Chains.Get(w.ChainID)
	if err != nil {
		return err
	}

	title := constant.EMOJI_WALLET + " " + w.Name
	if w.IsDefault {
		title += " (default)"
	}
	text := lines(
		bold(title),
		"",
		"Address: "+code(w.Address),
		"Network: "+chain.Name,
		"Balance: "+b.balance(ctx, w),
		"",
		link("View on "+chain.Explorer.Name, chain.AddressURL(w.Address)),
	)

	first := row(button(constant.BUTTON_TEXT_RENAME, callback.ActionRenameWallet, w.ID))
	if !w.IsDefault {
		first = append([]tgbotapi.InlineKeyboardButton{button(constant.BUTTON_TEXT_SET_DEFAULT, callback.ActionSetWalletDefault, w.ID)}, first...)
	}
	markup := b.keyboard(childNav(nav, callback.To(callback.ActionWallets)),
		first,
		row(
			button(constant.BUTTON_TEXT_SHOW_QR, callback.ActionWalletQR, w.ID),
			button(constant.BUTTON_TEXT_EXPORT_KEY, callback.ActionExportWallet, w.ID),
		),
		row(
			button(constant.BUTTON_TEXT_REFRESH, callback.ActionRefreshWallet, w.ID),
			button(constant.BUTTON_TEXT_DELETE, callback.ActionDeleteWallet, w.ID),
		),
	)
	return b.render(ev, nav, text, markup)
}

func (b *TgBotServices) refreshWallet(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	if err := b.showWallet(ctx, ev, id, nav); err != nil {
		return err
	}
	b.refreshed(ev)
	return nil
}

func (b *TgBotServices) setWalletDefault(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	if err := b.Wallets.SetDefault(ctx, ev.UserID, id); err != nil {
		return err
	}
	b.shortReply(ev, "Default wallet updated.")
	return b.showWallet(ctx, ev, id, nav)
}

func (b *TgBotServices) renameWallet(ctx context.Context, ev *Event, id string, _ callback.Nav) error {
	w, err := b.Wallets.Find(ctx, ev.UserID, id)
	if err != nil {
		return err
	}
	return b.ask(ctx, ev, models.JobEnterWalletName, walletPayload{WalletID: w.ID},
		"Send a new name for wallet "+bold(w.Name)+".")
}

func (b *TgBotServices) showWalletQR(ctx context.Context, ev *Event, id string, _ callback.Nav) error {
	w, err := b.Wallets.Find(ctx, ev.UserID, id)
	if err != nil {
		return err
	}
	png, err := api.AddressQR(w.Address)
	if err != nil {
		return err
	}
	markup := b.keyboard(callback.Nav{BackTo: callback.To(callback.ActionSelectWallet, w.ID)})
	return b.sendPhoto(ev.ChatID, "address.png", png, bold(w.Name)+"\n"+code(w.Address), &markup)
}

// exportWallet shows the private key of a wallet for a short time.
func (b *TgBotServices) exportWallet(ctx context.Context, ev *Event, id string, _ callback.Nav) error {
	w, err := b.Wallets.Find(ctx, ev.UserID, id)
	if err != nil {
		return err
	}
	key, err := secret.Decrypt(w.EncryptedPrivateKey, b.settings.ServerKey, w.Address, w.OwnerID)
	if err != nil {
		return fmt.Errorf("wallet %s: %w", w.ID, err)
	}
	text := lines(
		bold(constant.EMOJI_KEY+" "+w.Name),
		"",
		spoiler("0x"+key),
		"",
		constant.EMOJI_WARNING+" Never share your private key. This message is deleted in a minute.",
	)
	sent, err := b.sendMessage(ev.ChatID, text, 0, b.keyboard(callback.Nav{}))
	if err != nil {
		return err
	}
	time.AfterFunc(secretTTL, func() {
		b.deleteMessages(ev.ChatID, sent.MessageID)
	})
	return nil
}

func (b *TgBotServices) deleteWallet(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	err := b.Wallets.Delete(ctx, ev.UserID, id)
	if errors.Is(err, repository.ErrDefaultWallet) {
		return userErrorf("Set another wallet as default before deleting this one.")
	}
	if err != nil {
		return err
	}
	b.shortReply(ev, "Wallet deleted.")
	return b.showWallets(ctx, ev, "", nav)
}
