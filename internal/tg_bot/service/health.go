package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// requirePlan checks the subscription of the owner address. When the plan
// is not enough it shows the subscribe screen and returns an empty address.
func (b *TgBotServices) requirePlan(ctx context.Context, ev *Event, required models.Plan, title string, nav callback.Nav) (string, error) {
	address, err := b.ownerAddress(ctx, ev)
	if err != nil {
		return "", err
	}
	sub, err := b.subscription(ctx, address, false)
	if err == nil && !sub.Allows(required, b.now()) {
		// a plan bought since the last read is picked up here
		sub, err = b.subscription(ctx, address, true)
	}
	switch {
	case errors.Is(err, api.ErrNoSubscription):
	case err != nil:
		return "", err
	case sub.Allows(required, b.now()):
		return address, nil
	}

	text := lines(
		bold(title),
		"",
		fmt.Sprintf("This feature needs the %s plan or higher.", required),
	)
	var rows [][]tgbotapi.InlineKeyboardButton
	if b.settings.SubscriptionURL != "" {
		rows = append(rows, row(tgbotapi.NewInlineKeyboardButtonURL(constant.BUTTON_TEXT_SUBSCRIBE, b.settings.SubscriptionURL)))
	}
	return "", b.render(ev, nav, text, b.keyboard(menuNav(nav), rows...))
}

type passwordReport struct {
	total  int
	weak   []string
	reused []string
}

// checkPasswords finds weak passwords and passwords shared by several logins.
func (b *TgBotServices) checkPasswords(list []models.Credential) (passwordReport, error) {
	report := passwordReport{total: len(list)}
	passwords := make([]string, len(list))
	uses := make(map[string]int, len(list))
	for i, c := range list {
		password, err := b.Vault.Reveal(c.Password)
		if err != nil {
			return report, fmt.Errorf("credential %s: %w", c.ID, err)
		}
		if isWeakPassword(password) {
			report.weak = append(report.weak, credentialName(c))
		}
		passwords[i] = password
		uses[password]++
	}
	for i, c := range list {
		if uses[passwords[i]] > 1 {
			report.reused = append(report.reused, credentialName(c))
		}
	}
	return report, nil
}

func (b *TgBotServices) showPasswordHealth(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	address, err := b.requirePlan(ctx, ev, models.PlanPro, constant.BUTTON_TEXT_PASSWORD_HEALTH, nav)
	if err != nil || address == "" {
		return err
	}
	list, err := b.credentials(ctx, address, false)
	if err != nil {
		return err
	}
	report, err := b.checkPasswords(list)
	if err != nil {
		return err
	}

	text := []string{
		bold(constant.BUTTON_TEXT_PASSWORD_HEALTH),
		"",
		fmt.Sprintf("Logins checked: %d", report.total),
		fmt.Sprintf("Weak passwords: %d", len(report.weak)),
		fmt.Sprintf("Reused passwords: %d", len(report.reused)),
	}
	if len(report.weak) > 0 {
		text = append(text, "", "Weak: "+escape(strings.Join(report.weak, ", ")))
	}
	if len(report.reused) > 0 {
		text = append(text, "", "Reused: "+escape(strings.Join(report.reused, ", ")))
	}
	if len(report.weak) == 0 && len(report.reused) == 0 {
		text = append(text, "", constant.EMOJI_GREEN+" All your passwords look good.")
	}
	return b.render(ev, nav, lines(text...), b.keyboard(menuNav(nav),
		row(button(constant.BUTTON_TEXT_WEB2_LOGINS, callback.ActionWeb2Logins))))
}

type walletReport struct {
	total   int
	invalid []string
	reused  []string
}

// checkWallets finds bundle keys that do not parse and keys stored in more
// than one place.
func (b *TgBotServices) checkWallets(list []models.DefiWallet) (walletReport, error) {
	var report walletReport
	owners := make(map[string][]string)
	for _, d := range list {
		for _, w := range d.Wallets {
			report.total++
			label := d.Organization + "/" + w.WalletName
			_, address, err := b.revealAddress(w.PrivateKey)
			switch {
			case errors.Is(err, api.ErrInvalidPrivateKey):
				report.invalid = append(report.invalid, label)
				continue
			case err != nil:
				return report, fmt.Errorf("defi wallet %s: %w", d.ID, err)
			}
			owners[address] = append(owners[address], label)
		}
	}
	for _, labels := range owners {
		if len(labels) > 1 {
			report.reused = append(report.reused, strings.Join(labels, " = "))
		}
	}
	sort.Strings(report.reused)
	return report, nil
}

func (b *TgBotServices) showWalletHealth(ctx context.Context, ev *Event, _ string, nav callback.Nav) error {
	address, err := b.requirePlan(ctx, ev, models.PlanPro, constant.BUTTON_TEXT_WALLET_HEALTH, nav)
	if err != nil || address == "" {
		return err
	}
	list, err := b.defiWallets(ctx, address, false)
	if err != nil {
		return err
	}
	report, err := b.checkWallets(list)
	if err != nil {
		return err
	}

	text := []string{
		bold(constant.BUTTON_TEXT_WALLET_HEALTH),
		"",
		fmt.Sprintf("Wallets checked: %d", report.total),
		fmt.Sprintf("Invalid keys: %d", len(report.invalid)),
		fmt.Sprintf("Reused keys: %d", len(report.reused)),
	}
	if len(report.invalid) > 0 {
		text = append(text, "", "Invalid: "+escape(strings.Join(report.invalid, ", ")))
	}
	if len(report.reused) > 0 {
		text = append(text, "", "Reused: "+escape(strings.Join(report.reused, "; ")))
	}
	if len(report.invalid) == 0 && len(report.reused) == 0 {
		text = append(text, "", constant.EMOJI_GREEN+" All your wallets look good.")
	}
	return b.render(ev, nav, lines(text...), b.keyboard(menuNav(nav),
		row(button(constant.BUTTON_TEXT_DEFI_WALLETS, callback.ActionDefiWallets))))
}
