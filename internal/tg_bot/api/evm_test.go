package api

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/config"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type fakeBackend struct {
	balance *big.Int
	output  []byte
	closed  bool
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return f.output, nil
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeBackend) Close() { f.closed = true }

func testChains() config.Chains {
	return config.Chains{
		1:  {ID: 1, Name: "Ethereum", RPC: "http://eth", Native: models.Native{Symbol: "ETH", Decimals: 18}, Subscription: "0x00000000000000000000000000000000000000aa"},
		56: {ID: 56, Name: "BSC", RPC: "http://bsc", Native: models.Native{Symbol: "BNB", Decimals: 18}},
	}
}

func TestChainBalance(t *testing.T) {
	wei, _ := new(big.Int).SetString("1234500000000000000", 10)
	backend := &fakeBackend{balance: wei}
	dials := 0
	c, err := newChain(testChains(), func(context.Context, string) (Backend, error) {
		dials++
		return backend, nil
	})
	if err != nil {
		t.Fatalf("newChain: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := c.Balance(context.Background(), 1, ownerAddress)
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if got.String() != "1.2345" {
			t.Errorf("Balance = %s, want 1.2345", got)
		}
	}
	if dials != 1 {
		t.Errorf("dialed %d times, want 1", dials)
	}

	if _, err = c.Balance(context.Background(), 10, ownerAddress); err == nil {
		t.Error("unknown chain accepted")
	}

	c.Close()
	if !backend.closed {
		t.Error("Close did not close the backend")
	}
}

func TestChainSubscription(t *testing.T) {
	backend := &fakeBackend{}
	c, err := newChain(testChains(), func(context.Context, string) (Backend, error) { return backend, nil })
	if err != nil {
		t.Fatalf("newChain: %v", err)
	}
	backend.output, err = c.subABI.Methods["getUserSubscription"].Outputs.Pack(uint8(models.PlanPro), big.NewInt(1_900_000_000))
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	sub, err := c.Subscription(context.Background(), 1, ownerAddress)
	if err != nil {
		t.Fatalf("Subscription: %v", err)
	}
	if sub.Plan != models.PlanPro || sub.ExpiredTime.Int64() != 1_900_000_000 {
		t.Errorf("Subscription = %+v", sub)
	}

	if _, err = c.Subscription(context.Background(), 56, ownerAddress); !errors.Is(err, ErrNoSubscription) {
		t.Errorf("err = %v, want ErrNoSubscription", err)
	}
}

func TestParsePrivateKey(t *testing.T) {
	const key = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	const addr = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"

	for _, input := range []string{key, "0x" + key, "  " + key + "\n"} {
		gotKey, gotAddr, err := ParsePrivateKey(input)
		if err != nil {
			t.Fatalf("ParsePrivateKey(%q): %v", input, err)
		}
		if gotKey != key || gotAddr != addr {
			t.Errorf("ParsePrivateKey(%q) = (%s, %s)", input, gotKey, gotAddr)
		}
	}

	for _, bad := range []string{"", "0x1234", strings.Repeat("z", 64), strings.Repeat("0", 64)} {
		if _, _, err := ParsePrivateKey(bad); !errors.Is(err, ErrInvalidPrivateKey) {
			t.Errorf("ParsePrivateKey(%q) err = %v", bad, err)
		}
	}
}

func TestGenerateKey(t *testing.T) {
	key, addr, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	_, parsedAddr, err := ParsePrivateKey(key)
	if err != nil || parsedAddr != addr {
		t.Errorf("generated key does not round trip: (%s, %v)", parsedAddr, err)
	}
	if !IsAddress(addr) {
		t.Errorf("IsAddress(%s) = false", addr)
	}
}
