package service

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/config"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/jobs"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/repository"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/secret"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
)

const (
	testChatID = int64(500)
	testUserID = int64(42)
	testChain  = int64(1)
)

type sentMessage struct {
	id int
	c  tgbotapi.Chattable
}

// fakeBot records everything sent to Telegram.
type fakeBot struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []tgbotapi.EditMessageTextConfig
	deleted []int
}

func newFakeBot() *fakeBot {
	return &fakeBot{nextID: 1000}
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, sentMessage{id: f.nextID, c: c})
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := c.(type) {
	case tgbotapi.DeleteMessageConfig:
		f.deleted = append(f.deleted, v.MessageID)
	case tgbotapi.EditMessageTextConfig:
		f.edits = append(f.edits, v)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the texts of the sent messages, oldest first.
func (f *fakeBot) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if m, ok := s.c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

// lastSent returns the newest sent message with its id.
func (f *fakeBot) lastSent(t *testing.T) (int, tgbotapi.MessageConfig) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if m, ok := f.sent[i].c.(tgbotapi.MessageConfig); ok {
			return f.sent[i].id, m
		}
	}
	t.Fatal("no message was sent")
	return 0, tgbotapi.MessageConfig{}
}

// promptIDs returns the ids of the sent force-reply prompts.
func (f *fakeBot) promptIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, s := range f.sent {
		if m, ok := s.c.(tgbotapi.MessageConfig); ok {
			if _, ok = m.ReplyMarkup.(tgbotapi.ForceReply); ok {
				out = append(out, s.id)
			}
		}
	}
	return out
}

func (f *fakeBot) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		t.Fatal("no message was edited")
	}
	return f.edits[len(f.edits)-1]
}

func (f *fakeBot) wasDeleted(id int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deleted {
		if d == id {
			return true
		}
	}
	return false
}

func (f *fakeBot) sawText(substr string) bool {
	for _, text := range f.texts() {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

// fakeVault keeps the vault aggregates in memory and seals secrets with a
// real cipher.
type fakeVault struct {
	cipher *secret.Cipher

	mu          sync.Mutex
	credentials map[string][]models.Credential
	defi        map[string][]models.DefiWallet
	profiles    map[string]*models.Profile
	seq         int
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		cipher:      secret.NewCipher("vault-shared"),
		credentials: make(map[string][]models.Credential),
		defi:        make(map[string][]models.DefiWallet),
		profiles:    make(map[string]*models.Profile),
	}
}

func (v *fakeVault) Seal(plaintext string) (string, error) { return v.cipher.Seal(plaintext) }
func (v *fakeVault) Reveal(sealed string) (string, error)  { return v.cipher.Open(sealed) }

func (v *fakeVault) VerifyAccessToken(_ context.Context, token string) (string, error) {
	if token != "good-token" {
		return "", api.ErrUnauthorized
	}
	return "acc-1", nil
}

func (v *fakeVault) id(prefix string) string {
	v.seq++
	return prefix + strconv.Itoa(v.seq)
}

func (v *fakeVault) GetCredentials(_ context.Context, address string) ([]models.Credential, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Credential(nil), v.credentials[address]...), nil
}

func (v *fakeVault) CreateCredentials(_ context.Context, address string, list []models.Credential) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, c := range list {
		c.ID = v.id("c")
		v.credentials[address] = append(v.credentials[address], c)
	}
	return nil
}

func (v *fakeVault) UpdateCredential(_ context.Context, address string, c models.Credential) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, old := range v.credentials[address] {
		if old.ID == c.ID {
			v.credentials[address][i] = c
			return nil
		}
	}
	return errors.New("no such credential")
}

func (v *fakeVault) DeleteCredentials(_ context.Context, address string, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.credentials[address][:0]
	for _, c := range v.credentials[address] {
		if !slices.Contains(ids, c.ID) {
			kept = append(kept, c)
		}
	}
	v.credentials[address] = kept
	return nil
}

func (v *fakeVault) GetDefiWallets(_ context.Context, address string) ([]models.DefiWallet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.DefiWallet(nil), v.defi[address]...), nil
}

func (v *fakeVault) CreateDefiWallets(_ context.Context, address string, list []models.DefiWallet) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, d := range list {
		d.ID = v.id("d")
		v.defi[address] = append(v.defi[address], d)
	}
	return nil
}

func (v *fakeVault) UpdateDefiWallet(_ context.Context, address string, d models.DefiWallet) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, old := range v.defi[address] {
		if old.ID == d.ID {
			v.defi[address][i] = d
			return nil
		}
	}
	return errors.New("no such defi wallet")
}

func (v *fakeVault) DeleteDefiWallets(_ context.Context, address string, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.defi[address][:0]
	for _, d := range v.defi[address] {
		if !slices.Contains(ids, d.ID) {
			kept = append(kept, d)
		}
	}
	v.defi[address] = kept
	return nil
}

func (v *fakeVault) GetProfile(_ context.Context, address string) (*models.Profile, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.profiles[address]
	if !ok {
		return &models.Profile{}, nil
	}
	cp := *p
	cp.Cards = append([]models.Card(nil), p.Cards...)
	return &cp, nil
}

func (v *fakeVault) UpdateProfile(_ context.Context, address string, p models.Profile) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.profiles[address] = &p
	return nil
}

type fakeChain struct {
	mu  sync.Mutex
	sub models.Subscription
}

func (c *fakeChain) Balance(context.Context, int64, string) (decimal.Decimal, error) {
	return decimal.NewFromFloat(1.5), nil
}

func (c *fakeChain) Subscription(context.Context, int64, string) (models.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub, nil
}

func (c *fakeChain) subscribe(plan models.Plan, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sub = models.Subscription{Plan: plan, ExpiredTime: big.NewInt(until.Unix())}
}

type fakeFiles map[string][]byte

func (f fakeFiles) Download(_ context.Context, fileID string, _ int) ([]byte, error) {
	data, ok := f[fileID]
	if !ok {
		return nil, errors.New("no such file")
	}
	return data, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	svc     *TgBotServices
	clock   *testClock
	bot     *fakeBot
	vault   *fakeVault
	chain   *fakeChain
	files   fakeFiles
	jobs    *jobs.Store
	wallets *repository.Wallets
	nextMsg int
}

func newHarness(t *testing.T, authRequired bool) *harness {
	t.Helper()
	db, err := repository.Open(repository.DriverSQLite, filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = repository.Migrate(db, repository.DriverSQLite); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	logger, _ := test.NewNullLogger()
	clock := &testClock{t: time.Now()}
	h := &harness{
		clock:   clock,
		bot:     newFakeBot(),
		vault:   newFakeVault(),
		chain:   &fakeChain{},
		files:   fakeFiles{},
		jobs:    jobs.NewStore(repository.NewJobs(db), logger, jobs.WithClock(clock.now)),
		wallets: repository.NewWallets(db),
		nextMsg: 1,
	}
	h.svc, err = NewTgBot(Dependencies{
		Bot:        h.bot,
		Jobs:       h.jobs,
		Wallets:    h.wallets,
		UserBots:   repository.NewUserBots(db),
		Vault:      h.vault,
		Blockchain: h.chain,
		Files:      h.files,
		Log:        logger,
	}, Settings{
		ServerKey:    "server-key",
		ChainID:      testChain,
		Chains:       config.Chains{testChain: testChainInfo()},
		AuthRequired: authRequired,
		WarningTTL:   time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTgBot: %v", err)
	}
	return h
}

func testChainInfo() models.Chain {
	return models.Chain{
		ID:       testChain,
		Name:     "Ethereum",
		Explorer: models.Explorer{Name: "Etherscan", Root: "https://etherscan.io/", Address: "address/"},
		Native:   models.Native{Symbol: "ETH", Decimals: 18},
	}
}

// press simulates a button press on message messageID.
func (h *harness) press(messageID int, data string) {
	h.svc.UpdateProcessing(context.Background(), &tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "query",
			From:    &tgbotapi.User{ID: testUserID},
			Data:    data,
			Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: testChatID}},
		},
	})
}

// say simulates a text message and returns its id.
func (h *harness) say(text string) int {
	return h.send(&tgbotapi.Message{Text: text})
}

func (h *harness) send(m *tgbotapi.Message) int {
	h.nextMsg++
	m.MessageID = h.nextMsg
	m.From = &tgbotapi.User{ID: testUserID}
	m.Chat = &tgbotapi.Chat{ID: testChatID}
	h.svc.UpdateProcessing(context.Background(), &tgbotapi.Update{Message: m})
	return m.MessageID
}

// addWallet stores a default wallet for the test user and returns it.
func (h *harness) addWallet(t *testing.T) *models.Wallet {
	t.Helper()
	key, address, err := api.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	enc, err := secret.Encrypt(key, "server-key", address, testUserID)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	w, _, err := h.wallets.CreateOrRename(context.Background(), &models.Wallet{
		ID:                  "w1",
		OwnerID:             testUserID,
		ChainID:             testChain,
		Address:             address,
		EncryptedPrivateKey: enc,
		Name:                "Main",
	})
	if err != nil {
		t.Fatalf("CreateOrRename: %v", err)
	}
	return w
}

func (h *harness) seal(t *testing.T, s string) string {
	t.Helper()
	sealed, err := h.vault.Seal(s)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	return sealed
}

func backButton(t *testing.T, markup *tgbotapi.InlineKeyboardMarkup) string {
	t.Helper()
	if markup == nil {
		t.Fatal("screen has no keyboard")
	}
	for _, r := range markup.InlineKeyboard {
		for _, btn := range r {
			if btn.CallbackData != nil && strings.HasPrefix(*btn.CallbackData, "back|") {
				return *btn.CallbackData
			}
		}
	}
	return ""
}
