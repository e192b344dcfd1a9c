// Package tbot wires the Telegram bot: it builds every dependency once, on
// first use, and runs the update loop.
package tbot

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/api"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/cache"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/config"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/jobs"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/repository"
	botServ "github.com/DenisKhanov/HashieldBot/internal/tg_bot/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// ServiceProvider manages the dependency injection for Telegram bot components.
type ServiceProvider struct {
	config *config.Config
	log    *logrus.Logger

	// Storage
	db       *sql.DB
	dbErr    error
	wallets  *repository.Wallets
	userBots *repository.UserBots
	jobStore *jobs.Store

	// Remote services
	chains    config.Chains
	chainsErr error
	chain     *api.Chain
	chainErr  error
	vault     *api.Vault
	vaultErr  error
	serverKey string
	keyErr    error
	cache     *cache.Cache

	// Bot API
	botAPI    *tgbotapi.BotAPI
	botAPIErr error

	// Bot service
	botService    *botServ.TgBotServices
	botServiceErr error

	dbOnce         sync.Once
	reposOnce      sync.Once
	chainsOnce     sync.Once
	chainOnce      sync.Once
	vaultOnce      sync.Once
	keyOnce        sync.Once
	cacheOnce      sync.Once
	botAPIOnce     sync.Once
	botServiceOnce sync.Once
}

// NewServiceProvider creates a new instance of the service provider.
func NewServiceProvider(cfg *config.Config, log *logrus.Logger) *ServiceProvider {
	return &ServiceProvider{config: cfg, log: log}
}

// DB returns the document store with its schema migrated.
func (s *ServiceProvider) DB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := repository.Open(s.config.EnvDBDriver, s.config.EnvDBDSN)
		if err != nil {
			s.dbErr = err
			return
		}
		if err = repository.Migrate(db, s.config.EnvDBDriver); err != nil {
			_ = db.Close()
			s.dbErr = err
			return
		}
		s.db = db
		s.log.Infof("Database initialized (%s)", s.config.EnvDBDriver)
	})
	return s.db, s.dbErr
}

func (s *ServiceProvider) initRepositories() error {
	db, err := s.DB()
	if err != nil {
		return err
	}
	s.reposOnce.Do(func() {
		s.wallets = repository.NewWallets(db)
		s.userBots = repository.NewUserBots(db)
		s.jobStore = jobs.NewStore(repository.NewJobs(db), s.log.WithField("component", "jobs"),
			jobs.WithTTL(time.Duration(s.config.EnvJobTTLMinutes)*time.Minute))
		s.log.Info("Repositories initialized")
	})
	return nil
}

// Chains returns the chain registry.
func (s *ServiceProvider) Chains() (config.Chains, error) {
	s.chainsOnce.Do(func() {
		s.chains, s.chainsErr = config.LoadChains(s.config.EnvChainsFile)
		if s.chainsErr == nil {
			s.log.Infof("Chain registry loaded with chains %v", s.chains.IDs())
		}
	})
	return s.chains, s.chainsErr
}

// Chain returns the RPC reader of the configured chains.
func (s *ServiceProvider) Chain() (*api.Chain, error) {
	s.chainOnce.Do(func() {
		chains, err := s.Chains()
		if err != nil {
			s.chainErr = err
			return
		}
		s.chain, s.chainErr = api.NewChain(chains)
	})
	return s.chain, s.chainErr
}

// Vault returns the client of the remote vault.
func (s *ServiceProvider) Vault() (*api.Vault, error) {
	s.vaultOnce.Do(func() {
		s.vault, s.vaultErr = api.NewVault(s.config.EnvVaultEndpoint, s.config.EnvVaultSecret, api.TLSFiles{
			CertFile: s.config.EnvClientCert,
			KeyFile:  s.config.EnvClientKey,
			CAFile:   s.config.EnvClientCa,
		})
		if s.vaultErr == nil {
			s.log.Info("Vault client initialized")
		}
	})
	return s.vault, s.vaultErr
}

// ServerKey returns the key sealing wallet private keys.
func (s *ServiceProvider) ServerKey(ctx context.Context) (string, error) {
	s.keyOnce.Do(func() {
		s.serverKey, s.keyErr = s.config.ResolveSecurityKey(ctx)
	})
	return s.serverKey, s.keyErr
}

// Cache returns the response cache shared by all users.
func (s *ServiceProvider) Cache() *cache.Cache {
	s.cacheOnce.Do(func() {
		s.cache = cache.New()
	})
	return s.cache
}

// BotAPI returns the Telegram Bot API instance.
func (s *ServiceProvider) BotAPI() (*tgbotapi.BotAPI, error) {
	s.botAPIOnce.Do(func() {
		if err := tgbotapi.SetLogger(s.log.WithField("component", "telegram")); err != nil {
			s.botAPIErr = err
			return
		}
		s.botAPI, s.botAPIErr = tgbotapi.NewBotAPI(s.config.EnvBotToken)
		if s.botAPIErr != nil {
			return
		}
		s.botAPI.Debug = s.config.EnvBotDebug
		s.log.Infof("Bot API created successfully for %s", s.botAPI.Self.UserName)
	})
	return s.botAPI, s.botAPIErr
}

// BotService returns the main Telegram bot service.
func (s *ServiceProvider) BotService(ctx context.Context) (*botServ.TgBotServices, error) {
	s.botServiceOnce.Do(func() {
		s.botService, s.botServiceErr = s.newBotService(ctx)
		if s.botServiceErr == nil {
			s.log.Info("BotService initialized")
		}
	})
	return s.botService, s.botServiceErr
}

func (s *ServiceProvider) newBotService(ctx context.Context) (*botServ.TgBotServices, error) {
	if err := s.initRepositories(); err != nil {
		return nil, err
	}
	botAPI, err := s.BotAPI()
	if err != nil {
		return nil, fmt.Errorf("bot api: %w", err)
	}
	vault, err := s.Vault()
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	chains, err := s.Chains()
	if err != nil {
		return nil, err
	}
	chain, err := s.Chain()
	if err != nil {
		return nil, fmt.Errorf("chain: %w", err)
	}
	serverKey, err := s.ServerKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("security key: %w", err)
	}

	return botServ.NewTgBot(botServ.Dependencies{
		Bot:        botAPI,
		Jobs:       s.jobStore,
		Wallets:    s.wallets,
		UserBots:   s.userBots,
		Vault:      vault,
		Blockchain: chain,
		Files:      api.NewFiles(botAPI),
		Cache:      s.Cache(),
		Log:        s.log.WithField("component", "bot"),
	}, botServ.Settings{
		ServerKey:       serverKey,
		ChainID:         s.config.EnvDefaultChainID,
		Chains:          chains,
		AuthRequired:    s.config.EnvAuthRequired,
		WarningTTL:      time.Duration(s.config.EnvWarningTTLSeconds) * time.Second,
		WebsiteURL:      s.config.EnvWebsiteURL,
		SubscriptionURL: s.config.EnvSubscriptionURL,
	})
}

// Close releases the connections opened by the provider.
func (s *ServiceProvider) Close() {
	if s.chain != nil {
		s.chain.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.WithError(err).Error("Failed to close database")
		}
	}
}
