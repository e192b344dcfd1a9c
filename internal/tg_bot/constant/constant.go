package constant

const (
	EMOJI_WALLET     = "\U0001F45B"           //👛
	EMOJI_KEY        = "\U0001F511"           //🔑
	EMOJI_BANK       = "\U0001F3E6"           //🏦
	EMOJI_MEMO       = "\U0001F4DD"           //📝
	EMOJI_LOCK       = "\U0001F512"           //🔒
	EMOJI_SHIELD     = "\U0001F6E1\U0000FE0F" //🛡️
	EMOJI_INFO       = "\U00002139\U0000FE0F" //ℹ️
	EMOJI_CROSS      = "\U0000274C"           //❌
	EMOJI_BACK       = "\U0001F519"           //🔙
	EMOJI_REFRESH    = "\U0001F504"           //🔄
	EMOJI_PLUS       = "\U00002795"           //➕
	EMOJI_LINK       = "\U0001F517"           //🔗
	EMOJI_SPARKLES   = "\U00002728"           //✨
	EMOJI_STAR       = "\U00002B50"           //⭐
	EMOJI_TRASH      = "\U0001F5D1\U0000FE0F" //🗑️
	EMOJI_PENCIL     = "\U0000270F\U0000FE0F" //✏️
	EMOJI_WARNING    = "\U000026A0\U0000FE0F" //⚠️
	EMOJI_GREEN      = "\U0001F49A"           //💚
	EMOJI_CHECK_MARK = "\U00002705"           //✅
	EMOJI_EMPTY      = "\U00002B1C"           //⬜
	EMOJI_CARD       = "\U0001F4B3"           //💳
	EMOJI_FILE       = "\U0001F4C4"           //📄
	EMOJI_INBOX      = "\U0001F4E5"           //📥
	EMOJI_QR         = "\U0001F4F7"           //📷

	BUTTON_TEXT_WALLETS         = EMOJI_WALLET + " Wallets"
	BUTTON_TEXT_WEB2_LOGINS     = EMOJI_KEY + " Web2 Logins"
	BUTTON_TEXT_DEFI_WALLETS    = EMOJI_BANK + " Defi Wallets"
	BUTTON_TEXT_AUTO_FILL       = EMOJI_MEMO + " Auto Fill"
	BUTTON_TEXT_PASSWORD_HEALTH = EMOJI_LOCK + " Password Health"
	BUTTON_TEXT_WALLET_HEALTH   = EMOJI_SHIELD + " Wallet Health"
	BUTTON_TEXT_ABOUT           = EMOJI_INFO + " About"
	BUTTON_TEXT_CLOSE           = EMOJI_CROSS + " Close"
	BUTTON_TEXT_BACK            = EMOJI_BACK + " Back"
	BUTTON_TEXT_REFRESH         = EMOJI_REFRESH + " Refresh"
	BUTTON_TEXT_DELETE          = EMOJI_TRASH + " Delete"
	BUTTON_TEXT_TEMPLATE        = EMOJI_FILE + " Template"
	BUTTON_TEXT_IMPORT          = EMOJI_INBOX + " Import"

	BUTTON_TEXT_CREATE_WALLET   = EMOJI_PLUS + " Create Wallet"
	BUTTON_TEXT_CONNECT_WALLET  = EMOJI_LINK + " Connect Wallet"
	BUTTON_TEXT_GENERATE_WALLET = EMOJI_SPARKLES + " Generate Wallet"
	BUTTON_TEXT_SET_DEFAULT     = EMOJI_STAR + " Set Default"
	BUTTON_TEXT_RENAME          = EMOJI_PENCIL + " Rename"
	BUTTON_TEXT_SHOW_QR         = EMOJI_QR + " Show QR"
	BUTTON_TEXT_CARDS           = EMOJI_CARD + " Cards"
	BUTTON_TEXT_ADD_CARD        = EMOJI_PLUS + " Add Card"
	BUTTON_TEXT_EXPORT_KEY      = EMOJI_KEY + " Export Private Key"
	BUTTON_TEXT_SUBSCRIBE       = EMOJI_STAR + " Subscribe"

	MESSAGE_REFRESHED   = EMOJI_GREEN + " Refreshed successfully."
	MESSAGE_UNKNOWN     = "I did not get that. Use /menu to open the main menu."
	MESSAGE_WENT_WRONG  = "Something went wrong, please try again later."
	MESSAGE_JOB_EXPIRED = "This request has expired. Please start again from the menu."
)
