package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/jobs"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const walletsPerBundle = 3

type defiWalletPayload struct {
	ID    string `json:"id"`
	Index int    `json:"index,omitempty"`
}

var defiWalletColumns = func() []api.Column {
	cols := []api.Column{
		{Title: "Organization", Key: "organization"},
		{Title: "Seed Phrase", Key: "seedPhrase"},
	}
	for i := 1; i <= walletsPerBundle; i++ {
		cols = append(cols, api.Column{Title: fmt.Sprintf("Wallet %d", i), Key: fmt.Sprintf("wallet%d", i)})
	}
	return cols
}()

// bundleWalletParams encodes a wallet of a bundle as "<bundleID>_<index>".
func bundleWalletParams(id string, index int) string {
	return callback.JoinParams(id, strconv.Itoa(index))
}

// parseBundleWallet splits at the last separator so bundle ids may contain one.
func parseBundleWallet(params string) (string, int, error) {
	i := strings.LastIndex(params, callback.ParamSeparator)
	if i <= 0 {
		return "", 0, fmt.Errorf("%w: %q", callback.ErrParams, params)
	}
	index, err := strconv.Atoi(params[i+1:])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("%w: %q", callback.ErrParams, params)
	}
	return params[:i], index, nil
}

func walletOf(d models.DefiWallet, index int) (models.WalletOfDefiWallet, error) {
	if index < 0 || index >= len(d.Wallets) {
		return models.WalletOfDefiWallet{}, errNotFound("wallet of defi wallet", bundleWalletParams(d.ID, index))
	}
	return d.Wallets[index], nil
}

// revealAddress decrypts a bundle key and derives its address.
func (b *TgBotServices) revealAddress(sealed string) (key, address string, err error) {
	plain, err := b.Vault.Reveal(sealed)
	if err != nil {
		return "", "", err
	}
	key, address, err = api.ParsePrivateKey(plain)
	if err != nil {
		return plain, "", err
	}
	return key, address, nil
}

func (b *TgBotServices) showDefiWallets(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	return b.renderDefiWallets(ctx, ev, nav, false)
}

func (b *TgBotServices) refreshDefiWallets(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	if err := b.renderDefiWallets(ctx, ev, nav, true); err != nil {
		return err
	}
	b.refreshed(ev)
	return nil
}

func (b *TgBotServices) renderDefiWallets(ctx context.Context, ev *Event, nav callback.Nav, force bool) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	list, err := b.defiWallets(ctx, address, force)
	if err != nil {
		return err
	}

	text := []string{bold(fmt.Sprintf("%s (%d)", constant.BUTTON_TEXT_DEFI_WALLETS, len(list))), ""}
	if len(list) == 0 {
		text = append(text, "No defi wallets stored yet. Download the template, fill it in and import it.")
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+2)
	for _, d := range list {
		label := fmt.Sprintf("%s · %d wallets", d.Organization, len(d.Wallets))
		rows = append(rows, row(button(label, callback.ActionSelectDefiWallet, d.ID)))
	}
	rows = append(rows,
		row(
			button(constant.BUTTON_TEXT_TEMPLATE, callback.ActionTemplateDefiWallets),
			button(constant.BUTTON_TEXT_IMPORT, callback.ActionImportDefiWallets),
		),
		row(button(constant.BUTTON_TEXT_REFRESH, callback.ActionRefreshDefiWallets)),
	)
	return b.render(ev, nav, lines(text...), b.keyboard(menuNav(nav), rows...))
}

func (b *TgBotServices) showDefiWallet(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	return b.renderDefiWallet(ctx, ev, id, nav, false)
}

func (b *TgBotServices) refreshDefiWallet(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	if err := b.renderDefiWallet(ctx, ev, id, nav, true); err != nil {
		return err
	}
	b.refreshed(ev)
	return nil
}

func (b *TgBotServices) renderDefiWallet(ctx context.Context, ev *Event, id string, nav callback.Nav, force bool) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	list, err := b.defiWallets(ctx, address, force)
	if err != nil {
		return err
	}
	d, err := findDefiWallet(list, id)
	if err != nil {
		return err
	}

	text := []string{bold(constant.EMOJI_BANK + " " + d.Organization), ""}
	if d.SeedPhrase != "" {
		seed, err := b.Vault.Reveal(d.SeedPhrase)
		if err != nil {
			return fmt.Errorf("defi wallet %s: %w", d.ID, err)
		}
		text = append(text, "Seed phrase: "+spoiler(seed), "")
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(d.Wallets)+3)
	for i, w := range d.Wallets {
		_, addr, err := b.revealAddress(w.PrivateKey)
		switch {
		case errors.Is(err, api.ErrInvalidPrivateKey):
			addr = "invalid key"
		case err != nil:
			return fmt.Errorf("defi wallet %s: %w", d.ID, err)
		default:
			addr = shortenAddress(addr)
		}
		text = append(text, fmt.Sprintf("%d. %s %s", i+1, bold(w.WalletName), code(addr)))
		rows = append(rows, row(button(w.WalletName, callback.ActionSelectWalletOfDefiWallet, bundleWalletParams(d.ID, i))))
	}
	rows = append(rows,
		row(button(constant.EMOJI_PENCIL+" Organization", callback.ActionEditDefiWallet, d.ID)),
		row(
			button(constant.BUTTON_TEXT_REFRESH, callback.ActionRefreshDefiWallet, d.ID),
			button(constant.BUTTON_TEXT_DELETE, callback.ActionDeleteDefiWallet, d.ID),
		),
	)
	return b.render(ev, nav, lines(text...), b.keyboard(childNav(nav, callback.To(callback.ActionDefiWallets)), rows...))
}

func (b *TgBotServices) showWalletOfDefiWallet(ctx context.Context, ev *Event, params string, nav callback.Nav) error {
	return b.renderWalletOfDefiWallet(ctx, ev, params, nav, false)
}

func (b *TgBotServices) refreshWalletOfDefiWallet(ctx context.Context, ev *Event, params string, nav callback.Nav) error {
	if err := b.renderWalletOfDefiWallet(ctx, ev, params, nav, true); err != nil {
		return err
	}
	b.refreshed(ev)
	return nil
}

func (b *TgBotServices) renderWalletOfDefiWallet(ctx context.Context, ev *Event, params string, nav callback.Nav, force bool) error {
	id, index, err := parseBundleWallet(params)
	if err != nil {
		return err
	}
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	list, err := b.defiWallets(ctx, address, force)
	if err != nil {
		return err
	}
	d, err := findDefiWallet(list, id)
	if err != nil {
		return err
	}
	w, err := walletOf(d, index)
	if err != nil {
		return err
	}
	key, addr, err := b.revealAddress(w.PrivateKey)
	if err != nil && !errors.Is(err, api.ErrInvalidPrivateKey) {
		return fmt.Errorf("defi wallet %s: %w", d.ID, err)
	}
	if addr == "" {
		addr = "invalid key"
	}

	text := lines(
		bold(constant.EMOJI_WALLET+" "+w.WalletName),
		"Organization: "+escape(d.Organization),
		"",
		"Address: "+code(addr),
		"Private key: "+spoiler(key),
	)
	params = bundleWalletParams(d.ID, index)
	markup := b.keyboard(childNav(nav, callback.To(callback.ActionSelectDefiWallet, d.ID)),
		row(button(constant.BUTTON_TEXT_RENAME, callback.ActionEditWalletOfDefiWallet, params)),
		row(
			button(constant.BUTTON_TEXT_REFRESH, callback.ActionRefreshWalletOfDefiWallet, params),
			button(constant.BUTTON_TEXT_DELETE, callback.ActionDeleteWalletOfDefiWallet, params),
		),
	)
	return b.render(ev, nav, text, markup)
}

func (b *TgBotServices) editDefiWallet(ctx context.Context, ev *Event, id string, _ callback.Nav) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	list, err := b.defiWallets(ctx, address, false)
	if err != nil {
		return err
	}
	d, err := findDefiWallet(list, id)
	if err != nil {
		return err
	}
	return b.ask(ctx, ev, models.JobUpdateDefiWallet, defiWalletPayload{ID: d.ID},
		"Send the new organization name for "+bold(d.Organization)+".")
}

func (b *TgBotServices) replyUpdateDefiWallet(ctx context.Context, ev *Event, job *models.Job) error {
	name, err := validateName(ev.Text)
	if err != nil {
		return err
	}
	p, err := jobs.Payload[defiWalletPayload](job)
	if err != nil {
		return err
	}
	return b.updateDefiWallet(ctx, ev, p.ID, func(d *models.DefiWallet) error {
		d.Organization = name
		return nil
	}, func() error {
		b.shortReply(ev, "Organization renamed.")
		return b.showDefiWallet(ctx, ev, p.ID, callback.Nav{})
	})
}

func (b *TgBotServices) editWalletOfDefiWallet(ctx context.Context, ev *Event, params string, _ callback.Nav) error {
	id, index, err := parseBundleWallet(params)
	if err != nil {
		return err
	}
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	list, err := b.defiWallets(ctx, address, false)
	if err != nil {
		return err
	}
	d, err := findDefiWallet(list, id)
	if err != nil {
		return err
	}
	w, err := walletOf(d, index)
	if err != nil {
		return err
	}
	return b.ask(ctx, ev, models.JobUpdateWalletOfDefiWallet, defiWalletPayload{ID: d.ID, Index: index},
		"Send a new name for wallet "+bold(w.WalletName)+".")
}

func (b *TgBotServices) replyUpdateWalletOfDefiWallet(ctx context.Context, ev *Event, job *models.Job) error {
	name, err := validateName(ev.Text)
	if err != nil {
		return err
	}
	p, err := jobs.Payload[defiWalletPayload](job)
	if err != nil {
		return err
	}
	return b.updateDefiWallet(ctx, ev, p.ID, func(d *models.DefiWallet) error {
		if _, err := walletOf(*d, p.Index); err != nil {
			return err
		}
		d.Wallets[p.Index].WalletName = name
		return nil
	}, func() error {
		b.shortReply(ev, "Wallet renamed.")
		return b.showWalletOfDefiWallet(ctx, ev, bundleWalletParams(p.ID, p.Index), callback.Nav{})
	})
}

func (b *TgBotServices) deleteWalletOfDefiWallet(ctx context.Context, ev *Event, params string, nav callback.Nav) error {
	id, index, err := parseBundleWallet(params)
	if err != nil {
		return err
	}
	return b.updateDefiWallet(ctx, ev, id, func(d *models.DefiWallet) error {
		if _, err := walletOf(*d, index); err != nil {
			return err
		}
		d.Wallets = append(d.Wallets[:index:index], d.Wallets[index+1:]...)
		return nil
	}, func() error {
		b.shortReply(ev, "Wallet removed from the bundle.")
		return b.showDefiWallet(ctx, ev, id, nav)
	})
}

// updateDefiWallet applies change to bundle id, writes it to the vault,
// reloads the list and calls done.
func (b *TgBotServices) updateDefiWallet(ctx context.Context, ev *Event, id string, change func(*models.DefiWallet) error, done func() error) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	list, err := b.defiWallets(ctx, address, false)
	if err != nil {
		return err
	}
	d, err := findDefiWallet(list, id)
	if err != nil {
		return err
	}
	d.Wallets = append([]models.WalletOfDefiWallet(nil), d.Wallets...)
	if err = change(&d); err != nil {
		return err
	}
	if err = b.Vault.UpdateDefiWallet(ctx, address, d); err != nil {
		return err
	}
	if _, err = b.defiWallets(ctx, address, true); err != nil {
		return err
	}
	return done()
}

func (b *TgBotServices) deleteDefiWallet(ctx context.Context, ev *Event, id string, nav callback.Nav) error {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	if err = b.Vault.DeleteDefiWallets(ctx, address, []string{id}); err != nil {
		return err
	}
	if _, err = b.defiWallets(ctx, address, true); err != nil {
		return err
	}
	b.shortReply(ev, "Defi wallet deleted.")
	return b.showDefiWallets(ctx, ev, "", nav)
}

func (b *TgBotServices) sendDefiWalletsTemplate(_ context.Context, ev *Event, _ string, _ callback.Nav) error {
	data, err := api.BuildSheet(defiWalletColumns, []map[string]string{{
		"organization": "My DAO",
		"seedPhrase":   "word1 word2 word3 word4 word5 word6 word7 word8 word9 word10 word11 word12",
		"wallet1":      "Treasury,0x<private key>",
		"wallet2":      "Ops,0x<private key>",
	}})
	if err != nil {
		return err
	}
	return b.sendDocument(ev.ChatID, "defi_wallets_template.xlsx", data,
		"Fill in one organization per row. Each wallet cell is "+code("name,privateKey")+".")
}

func (b *TgBotServices) importDefiWallets(ctx context.Context, ev *Event, _ string, _ callback.Nav) error {
	if _, err := b.ownerAddress(ctx, ev); err != nil {
		return err
	}
	return b.ask(ctx, ev, models.JobImportDefiWallets, struct{}{},
		"Send the filled "+bold("Defi Wallets")+" template as an .xlsx file.")
}

func (b *TgBotServices) replyImportDefiWallets(ctx context.Context, ev *Event, _ *models.Job) error {
	records, err := b.readDocument(ctx, ev, defiWalletColumns)
	if err != nil {
		return err
	}
	bundles := make([]models.DefiWallet, 0, len(records))
	for i, r := range records {
		d, err := defiWalletFromRecord(r)
		if err != nil {
			return userErrorf("Row %d: %s", i+2, err.Error())
		}
		if err = b.sealDefiWallet(&d); err != nil {
			return err
		}
		bundles = append(bundles, d)
	}

	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return err
	}
	if err = b.Vault.CreateDefiWallets(ctx, address, bundles); err != nil {
		return err
	}
	if _, err = b.defiWallets(ctx, address, true); err != nil {
		return err
	}
	b.shortReply(ev, fmt.Sprintf("%d defi wallets imported.", len(bundles)))
	return b.showDefiWallets(ctx, ev, "", callback.Nav{})
}

func (b *TgBotServices) sealDefiWallet(d *models.DefiWallet) error {
	var err error
	if d.SeedPhrase != "" {
		if d.SeedPhrase, err = b.Vault.Seal(d.SeedPhrase); err != nil {
			return err
		}
	}
	for i := range d.Wallets {
		if d.Wallets[i].PrivateKey, err = b.Vault.Seal(d.Wallets[i].PrivateKey); err != nil {
			return err
		}
	}
	return nil
}

// defiWalletFromRecord validates one template row. Secrets are returned in
// clear and must be sealed by the caller.
func defiWalletFromRecord(r map[string]string) (models.DefiWallet, error) {
	d := models.DefiWallet{Organization: strings.TrimSpace(r["organization"])}
	if d.Organization == "" {
		return d, fmt.Errorf("the organization is empty")
	}
	if seed := strings.Join(strings.Fields(r["seedPhrase"]), " "); seed != "" {
		if !isSeedPhrase(seed) {
			return d, fmt.Errorf("the seed phrase must have 12, 15, 18, 21 or 24 words")
		}
		d.SeedPhrase = seed
	}
	for i := 1; i <= walletsPerBundle; i++ {
		cell := r[fmt.Sprintf("wallet%d", i)]
		if cell == "" {
			continue
		}
		name, key, ok := strings.Cut(cell, ",")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return d, fmt.Errorf("wallet %d must be written as name,privateKey", i)
		}
		key, _, err := api.ParsePrivateKey(key)
		if err != nil {
			return d, fmt.Errorf("wallet %d has an invalid private key", i)
		}
		d.Wallets = append(d.Wallets, models.WalletOfDefiWallet{WalletName: name, PrivateKey: key})
	}
	if d.SeedPhrase == "" && len(d.Wallets) == 0 {
		return d, fmt.Errorf("add a seed phrase or at least one wallet")
	}
	return d, nil
}

func isSeedPhrase(s string) bool {
	switch len(strings.Fields(s)) {
	case 12, 15, 18, 21, 24:
		return true
	}
	return false
}
