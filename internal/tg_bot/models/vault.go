package models

// Credential is a stored web2 login. Password is sealed while it travels
// between the bot and the vault.
type Credential struct {
	ID        string   `json:"_id,omitempty"`
	URL       []string `json:"url"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	AutoLogin bool     `json:"auto_login"`
	AutoFill  bool     `json:"auto_fill"`
	IsProtect bool     `json:"is_protect"`
	Note      string   `json:"note"`
}

// DefiWallet is an organization bundle: a seed phrase plus named private keys.
type DefiWallet struct {
	ID           string               `json:"_id,omitempty"`
	Organization string               `json:"organization"`
	SeedPhrase   string               `json:"seed_phrase"`
	Wallets      []WalletOfDefiWallet `json:"wallets"`
}

type WalletOfDefiWallet struct {
	WalletName string `json:"wallet_name"`
	PrivateKey string `json:"private_key"`
}

// Profile holds the auto-fill data of an account.
type Profile struct {
	ID      string      `json:"_id,omitempty"`
	Profile ProfileInfo `json:"profile"`
	Cards   []Card      `json:"cards"`
}

type ProfileInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	Birthday  string `json:"birthday"`
	City      string `json:"city"`
	State     string `json:"state"`
	PostCode  string `json:"post_code"`
	Phone     string `json:"phone"`
}

type Card struct {
	CardNumber string `json:"card_number"`
	CVC        string `json:"cvc"`
	ExpireDate string `json:"expire_date"`
}
