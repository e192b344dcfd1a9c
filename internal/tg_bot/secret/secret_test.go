package secret

import (
	"errors"
	"strings"
	"testing"
)

const (
	serverKey = "server-key"
	address   = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
	otherAddr = "0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0"
	owner     = int64(1042)
	privKey   = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
)

func TestEncryptDecrypt(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{name: "private key", secret: privKey},
		{name: "seed phrase", secret: "apple orange banana grape lemon cherry peach mango plum kiwi raspberry watermelon"},
		{name: "empty", secret: ""},
		{name: "unicode", secret: "пароль🔥"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, err := Encrypt(tt.secret, serverKey, address, owner)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			if tt.secret != "" && strings.Contains(ct, tt.secret) {
				t.Fatal("ciphertext contains the plaintext")
			}
			got, err := Decrypt(ct, serverKey, address, owner)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if got != tt.secret {
				t.Errorf("Decrypt = %q, want %q", got, tt.secret)
			}
		})
	}
}

func TestDecryptWithOtherInputsFails(t *testing.T) {
	ct, err := Encrypt(privKey, serverKey, address, owner)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	tests := []struct {
		name      string
		serverKey string
		address   string
		owner     int64
	}{
		{name: "other address", serverKey: serverKey, address: otherAddr, owner: owner},
		{name: "other owner", serverKey: serverKey, address: address, owner: owner + 1},
		{name: "other server key", serverKey: "rotated", address: address, owner: owner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decrypt(ct, tt.serverKey, tt.address, tt.owner)
			if !errors.Is(err, ErrDecrypt) {
				t.Fatalf("Decrypt err = %v, want ErrDecrypt", err)
			}
			if got == privKey {
				t.Fatal("Decrypt returned the original secret")
			}
		})
	}
}

func TestOpenInvalidInput(t *testing.T) {
	c := NewCipher("vault-secret")
	sealed, err := c.Seal("hello")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	tampered := []byte(sealed)
	if tampered[len(tampered)-1] == '0' {
		tampered[len(tampered)-1] = '1'
	} else {
		tampered[len(tampered)-1] = '0'
	}

	for _, input := range []string{"", "zz", "abcd", string(tampered)} {
		if _, err := c.Open(input); !errors.Is(err, ErrDecrypt) {
			t.Errorf("Open(%q) err = %v, want ErrDecrypt", input, err)
		}
	}
}

func TestSealIsRandomized(t *testing.T) {
	c := NewCipher("vault-secret")
	a, _ := c.Seal(address)
	b, _ := c.Seal(address)
	if a == b {
		t.Error("two seals of the same value are identical")
	}
}

func TestEmptyPassphrase(t *testing.T) {
	if _, err := NewCipher("").Seal("x"); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Seal err = %v, want ErrEmptyKey", err)
	}
}
