// Package service provides the conversational core of the Telegram bot.
// It turns button presses and free-text replies into menu screens for
// wallets, web2 logins, defi wallets and auto-fill profiles.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/cache"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/callback"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/config"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/jobs"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/repository"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Messenger is the Telegram transport. *tgbotapi.BotAPI implements it.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// JobStore keeps the questions waiting for a free-text answer.
type JobStore interface {
	Open(ctx context.Context, ownerID int64, action models.JobAction, payload any, cleanup ...int) (*models.Job, error)
	Resolve(ctx context.Context, ownerID int64, fn jobs.ResolveFunc) (*models.Job, error)
	Cancel(ctx context.Context, ownerID int64) (*models.Job, error)
}

// WalletRepository persists the wallets of users.
type WalletRepository interface {
	CreateOrRename(ctx context.Context, w *models.Wallet) (*models.Wallet, bool, error)
	Find(ctx context.Context, ownerID int64, id string) (*models.Wallet, error)
	FindDefault(ctx context.Context, ownerID int64) (*models.Wallet, error)
	List(ctx context.Context, ownerID int64) ([]*models.Wallet, error)
	Rename(ctx context.Context, ownerID int64, id, name string) error
	SetDefault(ctx context.Context, ownerID int64, id string) error
	Delete(ctx context.Context, ownerID int64, id string) error
}

// UserBotRepository maps Telegram users to vault accounts.
type UserBotRepository interface {
	Find(ctx context.Context, telegramUserID int64) (*models.UserBot, error)
	Save(ctx context.Context, u *models.UserBot) error
}

// Vault is the remote store of credentials, defi wallets and profiles.
type Vault interface {
	Seal(plaintext string) (string, error)
	Reveal(sealed string) (string, error)
	VerifyAccessToken(ctx context.Context, token string) (string, error)

	GetCredentials(ctx context.Context, address string) ([]models.Credential, error)
	CreateCredentials(ctx context.Context, address string, credentials []models.Credential) error
	UpdateCredential(ctx context.Context, address string, credential models.Credential) error
	DeleteCredentials(ctx context.Context, address string, ids []string) error

	GetDefiWallets(ctx context.Context, address string) ([]models.DefiWallet, error)
	CreateDefiWallets(ctx context.Context, address string, wallets []models.DefiWallet) error
	UpdateDefiWallet(ctx context.Context, address string, wallet models.DefiWallet) error
	DeleteDefiWallets(ctx context.Context, address string, ids []string) error

	GetProfile(ctx context.Context, address string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, address string, profile models.Profile) error
}

// Blockchain reads balances and subscriptions.
type Blockchain interface {
	Balance(ctx context.Context, chainID int64, address string) (decimal.Decimal, error)
	Subscription(ctx context.Context, chainID int64, address string) (models.Subscription, error)
}

// FileDownloader fetches documents sent by users.
type FileDownloader interface {
	Download(ctx context.Context, fileID string, size int) ([]byte, error)
}

// Settings holds the immutable configuration of the bot service.
type Settings struct {
	ServerKey       string        // server-wide key sealing wallet private keys
	ChainID         int64         // chain of new wallets and balances
	Chains          config.Chains // chain registry
	AuthRequired    bool          // ask for an access token before the menus
	WarningTTL      time.Duration // lifetime of transient warnings
	WebsiteURL      string
	SubscriptionURL string
}

// Dependencies groups the collaborators of TgBotServices.
type Dependencies struct {
	Bot        Messenger
	Jobs       JobStore
	Wallets    WalletRepository
	UserBots   UserBotRepository
	Vault      Vault
	Blockchain Blockchain
	Files      FileDownloader
	Cache      *cache.Cache
	Log        logrus.FieldLogger
}

// TgBotServices is the main service struct for the Telegram bot, integrating all dependencies.
type TgBotServices struct {
	Bot        Messenger         // Telegram transport
	Jobs       JobStore          // Pending free-text questions
	Wallets    WalletRepository  // Wallet documents
	UserBots   UserBotRepository // Telegram user to account mapping
	Vault      Vault             // Remote vault
	Blockchain Blockchain        // Chain reads
	Files      FileDownloader    // Document downloads
	Cache      *cache.Cache      // Vault and chain responses by owner address
	log        logrus.FieldLogger
	settings   Settings
	chain      models.Chain

	router  *Router
	replies map[models.JobAction]replyHandler
	now     func() time.Time
}

// NewTgBot creates a new TgBotServices instance and registers every menu
// action and reply handler.
// Arguments:
//   - deps: collaborators of the service.
//   - settings: configuration fixed at start.
//
// Returns a pointer to a TgBotServices or an error if the registry is
// inconsistent or the configured chain is unknown.
func NewTgBot(deps Dependencies, settings Settings) (*TgBotServices, error) {
	chain, err := settings.Chains.Get(settings.ChainID)
	if err != nil {
		return nil, err
	}
	if settings.WarningTTL <= 0 {
		settings.WarningTTL = 3 * time.Second
	}
	if deps.Cache == nil {
		deps.Cache = cache.New()
	}

	b := &TgBotServices{
		Bot:        deps.Bot,
		Jobs:       deps.Jobs,
		Wallets:    deps.Wallets,
		UserBots:   deps.UserBots,
		Vault:      deps.Vault,
		Blockchain: deps.Blockchain,
		Files:      deps.Files,
		Cache:      deps.Cache,
		log:        deps.Log,
		settings:   settings,
		chain:      chain,
		router:     NewRouter(),
		replies:    make(map[models.JobAction]replyHandler),
		now:        time.Now,
	}
	if err = b.registerActions(); err != nil {
		return nil, err
	}
	if err = b.registerReplies(); err != nil {
		return nil, err
	}
	if missing := b.router.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("no handler for actions %v", missing)
	}
	return b, nil
}

// Event is one inbound Telegram update reduced to what handlers use.
type Event struct {
	ChatID     int64
	UserID     int64
	UserName   string
	MessageID  int    // message carrying the pressed button, or the text message
	Text       string // trimmed text of a message, empty for callbacks
	RawText    string // text as typed, for values where spaces count
	CallbackID string
	Document   *tgbotapi.Document
}

// IsCallback reports whether the event is a button press.
func (e *Event) IsCallback() bool {
	return e.CallbackID != ""
}

func newEvent(update *tgbotapi.Update) (*Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return nil, false
		}
		return &Event{
			ChatID:     q.Message.Chat.ID,
			UserID:     q.From.ID,
			UserName:   q.From.UserName,
			MessageID:  q.Message.MessageID,
			CallbackID: q.ID,
		}, true
	case update.Message != nil:
		m := update.Message
		if m.From == nil || m.Chat == nil {
			return nil, false
		}
		return &Event{
			ChatID:    m.Chat.ID,
			UserID:    m.From.ID,
			UserName:  m.From.UserName,
			MessageID: m.MessageID,
			Text:      strings.TrimSpace(m.Text),
			RawText:   m.Text,
			Document:  m.Document,
		}, true
	default:
		return nil, false
	}
}

// UpdateProcessing handles one Telegram update. It never panics; every
// failure ends as a log line and a transient warning for the user.
func (b *TgBotServices) UpdateProcessing(ctx context.Context, update *tgbotapi.Update) {
	ev, ok := newEvent(update)
	if !ok {
		return
	}
	log := b.log.WithField("user", ev.UserID)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic while handling update %d: %v\n%s", update.UpdateID, r, debug.Stack())
			b.warning(ev, constant.MESSAGE_WENT_WRONG)
		}
	}()

	var err error
	if ev.IsCallback() {
		if _, err = b.Bot.Request(tgbotapi.NewCallback(ev.CallbackID, "")); err != nil {
			log.WithError(err).Debug("Failed to answer callback query")
		}
		key, params := callback.Decode(update.CallbackQuery.Data)
		err = b.dispatch(ctx, ev, key, params)
	} else {
		err = b.handleMessage(ctx, ev)
	}
	if err != nil {
		b.handleError(ctx, ev, err)
	}
}

func (b *TgBotServices) handleMessage(ctx context.Context, ev *Event) error {
	switch ev.Text {
	case "/start", "/menu":
		if started, err := b.requireAuth(ctx, ev); err != nil || started {
			return err
		}
		return b.showMenu(ctx, ev, "", callback.Nav{})
	case "/cancel":
		job, err := b.Jobs.Cancel(ctx, ev.UserID)
		if errors.Is(err, jobs.ErrNoJob) {
			return userErrorf("There is nothing to cancel.")
		}
		if err != nil {
			return err
		}
		b.deleteMessages(ev.ChatID, append(job.Cleanup, ev.MessageID)...)
		b.shortReply(ev, "Cancelled.")
		return nil
	default:
		return b.resolveReply(ctx, ev)
	}
}

func isPublic(key callback.ActionKey) bool {
	switch key {
	case callback.ActionNone, callback.ActionClose, callback.ActionAbout, callback.ActionBack:
		return true
	}
	return false
}

// dispatch routes a decoded button press. Everything but the public screens
// requires an authenticated user; a back press is checked against the
// screen it re-opens.
func (b *TgBotServices) dispatch(ctx context.Context, ev *Event, key callback.ActionKey, params string) error {
	target := key
	if key == callback.ActionBack {
		target = callback.Parse(params).Key
	}
	if !isPublic(target) {
		if started, err := b.requireAuth(ctx, ev); err != nil || started {
			return err
		}
	}
	return b.router.Route(ctx, ev, key, params)
}

// handleError turns a handler error into what the user sees. Validation
// errors are expected and not logged.
func (b *TgBotServices) handleError(ctx context.Context, ev *Event, err error) {
	var uerr *UserError
	switch {
	case errors.As(err, &uerr):
		b.warning(ev, uerr.Msg)
	case repository.IsErrNotFound(err):
		b.log.WithError(err).WithField("user", ev.UserID).Warn("Entity not found")
		b.warning(ev, "This item no longer exists.")
	case errors.Is(err, api.ErrUnauthorized):
		b.log.WithError(err).WithField("user", ev.UserID).Info("Vault rejected the user, asking for a token")
		if aerr := b.startAuth(ctx, ev); aerr != nil {
			b.log.WithError(aerr).Error("Failed to start the access token flow")
		}
	default:
		b.log.WithError(err).WithField("user", ev.UserID).Error("Failed to handle update")
		b.warning(ev, constant.MESSAGE_WENT_WRONG)
	}
}

// UserError is shown to the user verbatim.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string {
	return e.Msg
}

func userErrorf(format string, args ...any) error {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

var errNoWallet = &UserError{Msg: "Please create a wallet first."}

// ownerAddress returns the address of the default wallet, which identifies
// the user towards the vault.
func (b *TgBotServices) ownerAddress(ctx context.Context, ev *Event) (string, error) {
	w, err := b.Wallets.FindDefault(ctx, ev.UserID)
	if err != nil {
		if repository.IsErrNotFound(err) {
			return "", errNoWallet
		}
		return "", err
	}
	return w.Address, nil
}
