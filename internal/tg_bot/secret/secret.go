// Package secret seals private keys and vault payload secrets with an
// authenticated cipher. Every wallet key is sealed under its own passphrase
// "<serverKey>_<address>_<ownerID>", so a ciphertext only opens for the
// wallet and owner it was written for.
package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	saltSize = 16
	keySize  = chacha20poly1305.KeySize
	info     = "hashield-bot/secret/v1"
)

var (
	// ErrDecrypt is returned for tampered ciphertexts and for ciphertexts
	// sealed under another passphrase.
	ErrDecrypt    = errors.New("secret: decrypt failed")
	ErrEmptyKey   = errors.New("secret: empty passphrase")
	errShortInput = errors.New("ciphertext too short")
)

// WalletPassphrase builds the per-wallet passphrase.
func WalletPassphrase(serverKey, address string, ownerID int64) string {
	return serverKey + "_" + address + "_" + strconv.FormatInt(ownerID, 10)
}

// Encrypt seals a wallet secret for address and ownerID.
func Encrypt(plaintext, serverKey, address string, ownerID int64) (string, error) {
	return NewCipher(WalletPassphrase(serverKey, address, ownerID)).Seal(plaintext)
}

// Decrypt opens a wallet secret sealed by Encrypt with the same inputs.
func Decrypt(ciphertext, serverKey, address string, ownerID int64) (string, error) {
	return NewCipher(WalletPassphrase(serverKey, address, ownerID)).Open(ciphertext)
}

// Cipher seals strings under one passphrase.
type Cipher struct {
	passphrase []byte
}

func NewCipher(passphrase string) *Cipher {
	return &Cipher{passphrase: []byte(passphrase)}
}

// Seal returns hex(salt | nonce | ciphertext+tag).
func (c *Cipher) Seal(plaintext string) (string, error) {
	if len(c.passphrase) == 0 {
		return "", ErrEmptyKey
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	aead, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err = rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	msg := []byte(plaintext)
	sealed := aead.Seal(nonce, nonce, msg, salt)
	clear(msg)

	return hex.EncodeToString(append(salt, sealed...)), nil
}

// Open reverses Seal. Any failure is reported as ErrDecrypt.
func (c *Cipher) Open(ciphertext string) (string, error) {
	if len(c.passphrase) == 0 {
		return "", ErrEmptyKey
	}

	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < saltSize+chacha20poly1305.NonceSize+chacha20poly1305.Overhead {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, errShortInput)
	}

	salt, rest := raw[:saltSize], raw[saltSize:]
	aead, err := c.aead(salt)
	if err != nil {
		return "", err
	}
	nonce, sealed := rest[:aead.NonceSize()], rest[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, sealed, salt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plaintext), nil
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := make([]byte, keySize)
	defer clear(key)

	if _, err := io.ReadFull(hkdf.New(sha256.New, c.passphrase, salt, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return aead, nil
}
