package tbot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/config"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestProvider(t *testing.T) *ServiceProvider {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{
		EnvDBDriver:       "sqlite",
		EnvDBDSN:          filepath.Join(t.TempDir(), "bot.db"),
		EnvSecurityKey:    "server-key",
		EnvVaultEndpoint:  "https://vault.example.com/",
		EnvVaultSecret:    "vault-shared",
		EnvDefaultChainID: 1,
		EnvJobTTLMinutes:  30,
	}
	s := NewServiceProvider(cfg, logger)
	t.Cleanup(s.Close)
	return s
}

func TestServiceProviderStorage(t *testing.T) {
	s := newTestProvider(t)
	db, err := s.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	again, err := s.DB()
	if err != nil || again != db {
		t.Fatalf("second DB call = %p, %v, want the same handle", again, err)
	}
	if err = s.initRepositories(); err != nil {
		t.Fatalf("initRepositories: %v", err)
	}
	if s.wallets == nil || s.userBots == nil || s.jobStore == nil {
		t.Fatal("repositories were not built")
	}
	if s.jobStore.TTL().Minutes() != 30 {
		t.Errorf("job ttl = %s", s.jobStore.TTL())
	}
}

func TestServiceProviderRemotes(t *testing.T) {
	s := newTestProvider(t)
	chains, err := s.Chains()
	if err != nil {
		t.Fatalf("Chains: %v", err)
	}
	if _, err = chains.Get(1); err != nil {
		t.Errorf("default registry misses mainnet: %v", err)
	}
	if _, err = s.Chain(); err != nil {
		t.Errorf("Chain: %v", err)
	}
	if _, err = s.Vault(); err != nil {
		t.Errorf("Vault: %v", err)
	}
	key, err := s.ServerKey(context.Background())
	if err != nil || key != "server-key" {
		t.Errorf("ServerKey = %q, %v", key, err)
	}
	if s.Cache() != s.Cache() {
		t.Error("Cache is not shared")
	}
}

func TestServiceProviderBadDriver(t *testing.T) {
	s := newTestProvider(t)
	s.config.EnvDBDriver = "postgres"
	if _, err := s.DB(); err == nil {
		t.Fatal("DB accepted an unsupported driver")
	}
	if err := s.initRepositories(); err == nil {
		t.Fatal("repositories were built without a database")
	}
}
