package tbot

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/DenisKhanov/HashieldBot/internal/logcfg"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/config"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	updateTimeout   = 60 // seconds of long polling
	handlerTimeout  = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// App represents the application structure responsible for initializing dependencies
// and running the Telegram bot.
type App struct {
	serviceProvider *ServiceProvider // The service provider for dependency injection
	config          *config.Config   // The configuration object for the application
	log             *logrus.Logger
	health          *http.Server // nil when HEALTH_ADDR is empty
}

// NewApp creates a new instance of the application.
func NewApp(ctx context.Context) (*App, error) {
	app := &App{}
	err := app.initDeps(ctx)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// initDeps initializes all dependencies required by the application.
func (a *App) initDeps(ctx context.Context) error {
	inits := []func(context.Context) error{
		a.initConfig,
		a.initLogger,
		a.initServiceProvider,
		a.initHealthServer,
	}

	for _, f := range inits {
		err := f(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}

// initConfig initializes the application configuration.
func (a *App) initConfig(_ context.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	a.config = cfg
	return nil
}

func (a *App) initLogger(_ context.Context) error {
	logger, err := logcfg.NewLogger(a.config.EnvLogsLevel, a.config.EnvLogFileName)
	if err != nil {
		return err
	}
	a.log = logger
	a.log.Infof("BOT started with configuration logs level: %v", a.config.EnvLogsLevel)
	return nil
}

// initServiceProvider initializes the service provider and builds the bot
// service so configuration errors surface before the update loop starts.
func (a *App) initServiceProvider(ctx context.Context) error {
	a.serviceProvider = NewServiceProvider(a.config, a.log)
	if _, err := a.serviceProvider.BotService(ctx); err != nil {
		a.serviceProvider.Close()
		return err
	}
	return nil
}

func (a *App) initHealthServer(_ context.Context) error {
	if a.config.EnvHealthAddr == "" {
		return nil
	}
	db, err := a.serviceProvider.DB()
	if err != nil {
		return err
	}
	a.health = &http.Server{
		Addr:              a.config.EnvHealthAddr,
		Handler:           newHealthRouter(db, a.log.WithField("component", "health")),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Run starts the application and processes updates until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.serviceProvider.Close()

	if a.health != nil {
		go func() {
			a.log.Infof("Health server listening on %s", a.health.Addr)
			if err := a.health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.WithError(err).Error("Health server stopped")
			}
		}()
	}

	err := a.runTelegramBot(ctx)

	if a.health != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.health.Shutdown(shutdownCtx); err != nil {
			a.log.WithError(err).Error("Health server shutdown error")
		}
	}
	a.log.Info("Bot exited")
	return err
}

// runTelegramBot polls updates and handles each one in its own goroutine.
// In-flight updates are allowed to finish after ctx is cancelled.
func (a *App) runTelegramBot(ctx context.Context) error {
	botAPI, err := a.serviceProvider.BotAPI()
	if err != nil {
		return err
	}
	myBot, err := a.serviceProvider.BotService(ctx)
	if err != nil {
		return err
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = updateTimeout
	updates := botAPI.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup
	handle := func(update tgbotapi.Update) {
		defer wg.Done()
		hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
		defer cancel()
		myBot.UpdateProcessing(hctx, &update)
	}

loop:
	for {
		select {
		case <-ctx.Done():
			a.log.Info("Received shutdown signal, stopping updates...")
			break loop
		case update, ok := <-updates:
			if !ok {
				a.log.Error("Telegram update chan closed")
				break loop
			}
			wg.Add(1)
			go handle(update)
		}
	}

	botAPI.StopReceivingUpdates()
	wg.Wait()
	return nil
}
