package models

// DefaultWalletName is used when a wallet is created without a name.
const DefaultWalletName = "Unknown"

// Wallet is an EVM wallet owned by a Telegram user. The private key is stored
// encrypted with a key derived from the server key, the address and the owner.
type Wallet struct {
	ID                  string `json:"id"`
	OwnerID             int64  `json:"ownerId"`
	ChainID             int64  `json:"chainId"`
	Address             string `json:"address"`
	EncryptedPrivateKey string `json:"-"`
	Name                string `json:"name"`
	IsDefault           bool   `json:"isDefault"`
}
