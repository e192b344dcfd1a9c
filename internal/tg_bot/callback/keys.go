package callback

// ActionKey identifies a reachable screen or operation of the bot menus.
// Values are kept short because they travel inside Telegram callback data.
type ActionKey string

const (
	ActionNone  ActionKey = "none"
	ActionMenu  ActionKey = "menu"
	ActionClose ActionKey = "close"
	ActionBack  ActionKey = "back"
	ActionAbout ActionKey = "about"

	// wallets
	ActionWallets          ActionKey = "wl"
	ActionRefreshWallets   ActionKey = "wlR"
	ActionCreateWallet     ActionKey = "wlC"
	ActionConnectWallet    ActionKey = "wlI"
	ActionGenerateWallet   ActionKey = "wlG"
	ActionSelectWallet     ActionKey = "wS"
	ActionRefreshWallet    ActionKey = "wR"
	ActionSetWalletDefault ActionKey = "wD"
	ActionRenameWallet     ActionKey = "wN"
	ActionWalletQR         ActionKey = "wQ"
	ActionExportWallet     ActionKey = "wK"
	ActionDeleteWallet     ActionKey = "wX"

	// web2 logins
	ActionWeb2Logins                ActionKey = "cl"
	ActionRefreshWeb2Logins         ActionKey = "clR"
	ActionTemplateCredentials       ActionKey = "clT"
	ActionImportCredentials         ActionKey = "clI"
	ActionSelectCredential          ActionKey = "cS"
	ActionRefreshCredential         ActionKey = "cR"
	ActionDeleteCredential          ActionKey = "cX"
	ActionEditCredentialUsername    ActionKey = "cEu"
	ActionEditCredentialEmail       ActionKey = "cEe"
	ActionEditCredentialPassword    ActionKey = "cEp"
	ActionToggleCredentialAutoLogin ActionKey = "cTl"
	ActionToggleCredentialAutoFill  ActionKey = "cTf"
	ActionToggleCredentialProtect   ActionKey = "cTp"

	// defi wallets
	ActionDefiWallets               ActionKey = "dl"
	ActionRefreshDefiWallets        ActionKey = "dlR"
	ActionTemplateDefiWallets       ActionKey = "dlT"
	ActionImportDefiWallets         ActionKey = "dlI"
	ActionSelectDefiWallet          ActionKey = "dS"
	ActionRefreshDefiWallet         ActionKey = "dR"
	ActionDeleteDefiWallet          ActionKey = "dX"
	ActionEditDefiWallet            ActionKey = "dE"
	ActionSelectWalletOfDefiWallet  ActionKey = "dwS"
	ActionRefreshWalletOfDefiWallet ActionKey = "dwR"
	ActionDeleteWalletOfDefiWallet  ActionKey = "dwX"
	ActionEditWalletOfDefiWallet    ActionKey = "dwE"

	// auto fill
	ActionAutoFill        ActionKey = "af"
	ActionRefreshAutoFill ActionKey = "afR"
	ActionUpdateProfile   ActionKey = "afU"
	ActionProfileCards    ActionKey = "pc"
	ActionSelectCard      ActionKey = "pcS"
	ActionUpdateCard      ActionKey = "pcU"
	ActionDeleteCard      ActionKey = "pcX"

	// subscription gated
	ActionPasswordHealth ActionKey = "ph"
	ActionWalletHealth   ActionKey = "wh"
)

var allKeys = []ActionKey{
	ActionNone, ActionMenu, ActionClose, ActionBack, ActionAbout,
	ActionWallets, ActionRefreshWallets, ActionCreateWallet, ActionConnectWallet, ActionGenerateWallet,
	ActionSelectWallet, ActionRefreshWallet, ActionSetWalletDefault, ActionRenameWallet, ActionWalletQR, ActionExportWallet, ActionDeleteWallet,
	ActionWeb2Logins, ActionRefreshWeb2Logins, ActionTemplateCredentials, ActionImportCredentials,
	ActionSelectCredential, ActionRefreshCredential, ActionDeleteCredential,
	ActionEditCredentialUsername, ActionEditCredentialEmail, ActionEditCredentialPassword,
	ActionToggleCredentialAutoLogin, ActionToggleCredentialAutoFill, ActionToggleCredentialProtect,
	ActionDefiWallets, ActionRefreshDefiWallets, ActionTemplateDefiWallets, ActionImportDefiWallets,
	ActionSelectDefiWallet, ActionRefreshDefiWallet, ActionDeleteDefiWallet, ActionEditDefiWallet,
	ActionSelectWalletOfDefiWallet, ActionRefreshWalletOfDefiWallet, ActionDeleteWalletOfDefiWallet, ActionEditWalletOfDefiWallet,
	ActionAutoFill, ActionRefreshAutoFill, ActionUpdateProfile,
	ActionProfileCards, ActionSelectCard, ActionUpdateCard, ActionDeleteCard,
	ActionPasswordHealth, ActionWalletHealth,
}

var knownKeys = func() map[ActionKey]struct{} {
	m := make(map[ActionKey]struct{}, len(allKeys))
	for _, k := range allKeys {
		m[k] = struct{}{}
	}
	return m
}()

// Keys returns every action key of the menu tree.
func Keys() []ActionKey {
	out := make([]ActionKey, len(allKeys))
	copy(out, allKeys)
	return out
}

// Valid reports whether k belongs to the enumeration.
func (k ActionKey) Valid() bool {
	_, ok := knownKeys[k]
	return ok
}
