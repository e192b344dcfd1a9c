package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/secret"
	"github.com/go-resty/resty/v2"
)

const resultOK = 1

var (
	// ErrUnauthorized is returned when the vault rejects the api key or token.
	ErrUnauthorized = errors.New("vault: unauthorized")
	ErrVault        = errors.New("vault: request failed")
)

// TLSFiles enables mutual TLS towards the vault when CertFile is set.
type TLSFiles struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

// Vault is the HTTP client of the remote vault that stores credentials,
// defi wallets and auto-fill profiles. Every request is authenticated by the
// owner address sealed with the vault shared secret. Secrets inside the
// payloads travel sealed with the same secret; callers use Seal before a
// write and Reveal right before display.
type Vault struct {
	client *resty.Client
	cipher *secret.Cipher
}

type envelope[T any] struct {
	Result  int    `json:"result"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// NewVault creates a vault client for endpoint.
func NewVault(endpoint, sharedSecret string, files TLSFiles) (*Vault, error) {
	if endpoint == "" || sharedSecret == "" {
		return nil, errors.New("vault endpoint and secret must be set")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json")

	if files.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(files.CertFile, files.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		client.SetCertificates(cert)
		if files.CAFile != "" {
			client.SetRootCertificate(files.CAFile)
		}
	}

	return &Vault{
		client: client,
		cipher: secret.NewCipher(sharedSecret),
	}, nil
}

// Seal encrypts a secret for storage in the vault.
func (v *Vault) Seal(plaintext string) (string, error) {
	return v.cipher.Seal(plaintext)
}

// Reveal decrypts a secret read from the vault.
func (v *Vault) Reveal(sealed string) (string, error) {
	return v.cipher.Open(sealed)
}

func (v *Vault) request(ctx context.Context, address string) (*resty.Request, error) {
	apiKey, err := v.cipher.Seal(address)
	if err != nil {
		return nil, fmt.Errorf("build api key: %w", err)
	}
	return v.client.R().SetContext(ctx).SetHeader("x-api-key", apiKey), nil
}

func do[T any](req *resty.Request, method, path string) (T, error) {
	var (
		out  envelope[T]
		zero T
	)
	resp, err := req.SetResult(&out).SetError(&out).Execute(method, path)
	if err != nil {
		return zero, fmt.Errorf("%w: %s %s: %v", ErrVault, method, path, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return zero, fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
	case resp.IsError():
		return zero, fmt.Errorf("%w: %s %s: status %d %s", ErrVault, method, path, resp.StatusCode(), out.Message)
	case out.Result != resultOK:
		return zero, fmt.Errorf("%w: %s %s: %s", ErrVault, method, path, out.Message)
	}
	return out.Data, nil
}

func call[T any](ctx context.Context, v *Vault, address, method, path string, body any) (T, error) {
	req, err := v.request(ctx, address)
	if err != nil {
		var zero T
		return zero, err
	}
	if body != nil {
		req.SetBody(body)
	}
	return do[T](req, method, path)
}

// VerifyAccessToken exchanges a website access token for the account id.
func (v *Vault) VerifyAccessToken(ctx context.Context, token string) (string, error) {
	req := v.client.R().SetContext(ctx).SetBody(map[string]string{"token": token})
	data, err := do[struct {
		AccountID string `json:"accountId"`
	}](req, http.MethodPost, "/auth/verify")
	if err != nil {
		return "", err
	}
	if data.AccountID == "" {
		return "", ErrUnauthorized
	}
	return data.AccountID, nil
}

func (v *Vault) GetCredentials(ctx context.Context, address string) ([]models.Credential, error) {
	return call[[]models.Credential](ctx, v, address, http.MethodGet, "/credentials", nil)
}

func (v *Vault) CreateCredentials(ctx context.Context, address string, credentials []models.Credential) error {
	_, err := call[any](ctx, v, address, http.MethodPost, "/credentials", map[string]any{"credentials": credentials})
	return err
}

func (v *Vault) UpdateCredential(ctx context.Context, address string, credential models.Credential) error {
	_, err := call[any](ctx, v, address, http.MethodPut, "/credentials/"+credential.ID, credential)
	return err
}

func (v *Vault) DeleteCredentials(ctx context.Context, address string, ids []string) error {
	_, err := call[any](ctx, v, address, http.MethodDelete, "/credentials", map[string]any{"ids": ids})
	return err
}

func (v *Vault) GetDefiWallets(ctx context.Context, address string) ([]models.DefiWallet, error) {
	return call[[]models.DefiWallet](ctx, v, address, http.MethodGet, "/defi-wallets", nil)
}

func (v *Vault) CreateDefiWallets(ctx context.Context, address string, wallets []models.DefiWallet) error {
	_, err := call[any](ctx, v, address, http.MethodPost, "/defi-wallets", map[string]any{"defiWallets": wallets})
	return err
}

func (v *Vault) UpdateDefiWallet(ctx context.Context, address string, wallet models.DefiWallet) error {
	_, err := call[any](ctx, v, address, http.MethodPut, "/defi-wallets/"+wallet.ID, wallet)
	return err
}

func (v *Vault) DeleteDefiWallets(ctx context.Context, address string, ids []string) error {
	_, err := call[any](ctx, v, address, http.MethodDelete, "/defi-wallets", map[string]any{"ids": ids})
	return err
}

// GetProfile returns the auto-fill profile of address. An account without a
// profile yields an empty one.
func (v *Vault) GetProfile(ctx context.Context, address string) (*models.Profile, error) {
	p, err := call[*models.Profile](ctx, v, address, http.MethodGet, "/profile", nil)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &models.Profile{}
	}
	return p, nil
}

func (v *Vault) UpdateProfile(ctx context.Context, address string, profile models.Profile) error {
	_, err := call[any](ctx, v, address, http.MethodPut, "/profile", profile)
	return err
}
