package config

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

func TestDefaultChains(t *testing.T) {
	chains, err := LoadChains("")
	if err != nil {
		t.Fatalf("LoadChains: %v", err)
	}
	for _, id := range []int64{1, 56, 97, 137, 42161} {
		c, err := chains.Get(id)
		if err != nil {
			t.Errorf("chain %d: %v", id, err)
			continue
		}
		if c.Native.Decimals != 18 || c.Explorer.Root == "" {
			t.Errorf("chain %d = %+v", id, c)
		}
	}
	if got := chains.IDs(); len(got) != 5 || got[0] != 1 {
		t.Errorf("IDs = %v", got)
	}

	eth, _ := chains.Get(1)
	if got := eth.AddressURL("0xabc"); got != "https://etherscan.io/address/0xabc" {
		t.Errorf("AddressURL = %q", got)
	}
}

func TestParseChainsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing rpc", doc: "chains:\n  - id: 1\n    name: x\n"},
		{name: "duplicate", doc: "chains:\n  - id: 1\n    rpc: a\n  - id: 1\n    rpc: b\n"},
		{name: "not yaml", doc: "chains: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseChains([]byte(tt.doc)); err == nil {
				t.Error("ParseChains accepted an invalid document")
			}
		})
	}

	if _, err := (Chains{}).Get(1); err == nil {
		t.Error("Get on empty registry succeeded")
	}
}

func TestValidate(t *testing.T) {
	base := Config{EnvDBDriver: "sqlite", EnvSecurityKey: "k", EnvJobTTLMinutes: 30, EnvWarningTTLSeconds: 3}
	if err := base.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "driver", mutate: func(c *Config) { c.EnvDBDriver = "postgres" }},
		{name: "no key", mutate: func(c *Config) { c.EnvSecurityKey = "" }},
		{name: "ttl", mutate: func(c *Config) { c.EnvJobTTLMinutes = 0 }},
		{name: "warning ttl", mutate: func(c *Config) { c.EnvWarningTTLSeconds = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.validate(); err == nil {
				t.Error("validate accepted an invalid config")
			}
		})
	}
}

type fakeSecrets struct {
	value *string
	err   error
}

func (f fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{Name: in.SecretId, SecretString: f.value}, nil
}

func TestFetchSecret(t *testing.T) {
	key := "s3cret"
	got, err := fetchSecret(context.Background(), fakeSecrets{value: &key}, "bot/key")
	if err != nil || got != key {
		t.Fatalf("fetchSecret = (%q, %v)", got, err)
	}

	empty := ""
	if _, err = fetchSecret(context.Background(), fakeSecrets{value: &empty}, "bot/key"); err == nil {
		t.Error("empty secret accepted")
	}
	boom := errors.New("denied")
	if _, err = fetchSecret(context.Background(), fakeSecrets{err: boom}, "bot/key"); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestResolveSecurityKeyPrefersEnv(t *testing.T) {
	c := Config{EnvSecurityKey: "from-env", EnvSecurityKeySecretID: "ignored"}
	got, err := c.ResolveSecurityKey(context.Background())
	if err != nil || got != "from-env" {
		t.Errorf("ResolveSecurityKey = (%q, %v)", got, err)
	}
}
