package service

import (
	"context"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
)

type route struct {
	key callback.ActionKey
	fn  HandlerFunc
}

// registerActions fills the router. Every action key must end up with
// exactly one handler.
func (b *TgBotServices) registerActions() error {
	sections := map[Section][]route{
		SectionMisc: {
			{callback.ActionNone, b.noop},
			{callback.ActionClose, b.closeMessage},
			{callback.ActionBack, b.router.back},
			{callback.ActionAbout, b.showAbout},
		},
		SectionMenu: {
			{callback.ActionMenu, b.showMenu},
		},
		SectionWallets: {
			{callback.ActionWallets, b.showWallets},
			{callback.ActionRefreshWallets, b.refreshWallets},
			{callback.ActionCreateWallet, b.showCreateWallet},
			{callback.ActionConnectWallet, b.connectWallet},
			{callback.ActionGenerateWallet, b.generateWallet},
			{callback.ActionSelectWallet, b.showWallet},
			{callback.ActionRefreshWallet, b.refreshWallet},
			{callback.ActionSetWalletDefault, b.setWalletDefault},
			{callback.ActionRenameWallet, b.renameWallet},
			{callback.ActionWalletQR, b.showWalletQR},
			{callback.ActionExportWallet, b.exportWallet},
			{callback.ActionDeleteWallet, b.deleteWallet},
		},
		SectionCredentials: {
			{callback.ActionWeb2Logins, b.showCredentials},
			{callback.ActionRefreshWeb2Logins, b.refreshCredentials},
			{callback.ActionTemplateCredentials, b.sendCredentialsTemplate},
			{callback.ActionImportCredentials, b.importCredentials},
			{callback.ActionSelectCredential, b.showCredential},
			{callback.ActionRefreshCredential, b.refreshCredential},
			{callback.ActionDeleteCredential, b.deleteCredential},
			{callback.ActionEditCredentialUsername, b.editCredential(credentialUsername)},
			{callback.ActionEditCredentialEmail, b.editCredential(credentialEmail)},
			{callback.ActionEditCredentialPassword, b.editCredential(credentialPassword)},
			{callback.ActionToggleCredentialAutoLogin, b.toggleCredential(toggleAutoLogin)},
			{callback.ActionToggleCredentialAutoFill, b.toggleCredential(toggleAutoFill)},
			{callback.ActionToggleCredentialProtect, b.toggleCredential(toggleProtect)},
		},
		SectionDefiWallets: {
			{callback.ActionDefiWallets, b.showDefiWallets},
			{callback.ActionRefreshDefiWallets, b.refreshDefiWallets},
			{callback.ActionTemplateDefiWallets, b.sendDefiWalletsTemplate},
			{callback.ActionImportDefiWallets, b.importDefiWallets},
			{callback.ActionSelectDefiWallet, b.showDefiWallet},
			{callback.ActionRefreshDefiWallet, b.refreshDefiWallet},
			{callback.ActionDeleteDefiWallet, b.deleteDefiWallet},
			{callback.ActionEditDefiWallet, b.editDefiWallet},
			{callback.ActionSelectWalletOfDefiWallet, b.showWalletOfDefiWallet},
			{callback.ActionRefreshWalletOfDefiWallet, b.refreshWalletOfDefiWallet},
			{callback.ActionDeleteWalletOfDefiWallet, b.deleteWalletOfDefiWallet},
			{callback.ActionEditWalletOfDefiWallet, b.editWalletOfDefiWallet},
		},
		SectionAutoFill: {
			{callback.ActionAutoFill, b.showAutoFill},
			{callback.ActionRefreshAutoFill, b.refreshAutoFill},
			{callback.ActionUpdateProfile, b.updateProfile},
			{callback.ActionProfileCards, b.showCards},
			{callback.ActionSelectCard, b.showCard},
			{callback.ActionUpdateCard, b.updateCard},
			{callback.ActionDeleteCard, b.deleteCard},
		},
		SectionHealth: {
			{callback.ActionPasswordHealth, b.showPasswordHealth},
			{callback.ActionWalletHealth, b.showWalletHealth},
		},
	}
	for section, routes := range sections {
		for _, r := range routes {
			if err := b.router.Handle(section, r.key, r.fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// showMenu displays the main menu with the bot sections as inline buttons.
func (b *TgBotServices) showMenu(_ context.Context, ev *Event, _ string, nav callback.Nav) error {
	markup := b.keyboard(callback.Nav{},
		row(button(constant.BUTTON_TEXT_WALLETS, callback.ActionWallets)),
		row(
			button(constant.BUTTON_TEXT_WEB2_LOGINS, callback.ActionWeb2Logins),
			button(constant.BUTTON_TEXT_DEFI_WALLETS, callback.ActionDefiWallets),
		),
		row(button(constant.BUTTON_TEXT_AUTO_FILL, callback.ActionAutoFill)),
		row(
			button(constant.BUTTON_TEXT_PASSWORD_HEALTH, callback.ActionPasswordHealth),
			button(constant.BUTTON_TEXT_WALLET_HEALTH, callback.ActionWalletHealth),
		),
		row(button(constant.BUTTON_TEXT_ABOUT, callback.ActionAbout)),
	)
	text := lines(
		constant.EMOJI_SHIELD+" "+bold("Hashield"),
		"",
		"Keep your wallets, logins and auto-fill data in one place.",
		"Choose a section:",
	)
	return b.render(ev, nav, text, markup)
}

func (b *TgBotServices) noop(context.Context, *Event, string, callback.Nav) error {
	return nil
}

// closeMessage deletes the message that carried the pressed button.
func (b *TgBotServices) closeMessage(_ context.Context, ev *Event, _ string, _ callback.Nav) error {
	b.deleteMessages(ev.ChatID, ev.MessageID)
	return nil
}

// menuNav is the navigation of a first level screen.
func menuNav(nav callback.Nav) callback.Nav {
	return callback.Nav{BackFrom: nav.BackFrom, BackTo: callback.To(callback.ActionMenu)}
}

// childNav returns the navigation of a screen whose parent is to.
func childNav(nav callback.Nav, to callback.Token) callback.Nav {
	return callback.Nav{BackFrom: nav.BackFrom, BackTo: to}
}

// refreshed confirms a forced reload of a screen.
func (b *TgBotServices) refreshed(ev *Event) {
	b.transient(ev, constant.MESSAGE_REFRESHED)
}
