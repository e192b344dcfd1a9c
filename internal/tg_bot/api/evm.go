package api

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/config"
	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const subscriptionABI = `[{"inputs":[{"internalType":"address","name":"user","type":"address"}],"name":"getUserSubscription","outputs":[{"internalType":"uint8","name":"plan","type":"uint8"},{"internalType":"uint256","name":"expiredTime","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var (
	ErrInvalidPrivateKey = errors.New("invalid private key")
	ErrNoSubscription    = errors.New("subscription contract is not deployed on this chain")
)

// Backend is the part of ethclient used by Chain.
type Backend interface {
	bind.ContractCaller
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// Chain reads balances and subscriptions from the configured EVM networks.
// Connections are dialed on first use and reused.
type Chain struct {
	chains   config.Chains
	dial     func(ctx context.Context, rpc string) (Backend, error)
	subABI   abi.ABI
	mu       sync.Mutex
	backends map[int64]Backend
}

func NewChain(chains config.Chains) (*Chain, error) {
	return newChain(chains, func(ctx context.Context, rpc string) (Backend, error) {
		return ethclient.DialContext(ctx, rpc)
	})
}

func newChain(chains config.Chains, dial func(ctx context.Context, rpc string) (Backend, error)) (*Chain, error) {
	parsed, err := abi.JSON(strings.NewReader(subscriptionABI))
	if err != nil {
		return nil, fmt.Errorf("parse subscription abi: %w", err)
	}
	return &Chain{
		chains:   chains,
		dial:     dial,
		subABI:   parsed,
		backends: make(map[int64]Backend),
	}, nil
}

func (c *Chain) backend(ctx context.Context, chainID int64) (Backend, models.Chain, error) {
	chain, err := c.chains.Get(chainID)
	if err != nil {
		return nil, models.Chain{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.backends[chainID]; ok {
		return b, chain, nil
	}
	b, err := c.dial(ctx, chain.RPC)
	if err != nil {
		return nil, chain, fmt.Errorf("dial %s: %w", chain.Name, err)
	}
	c.backends[chainID] = b
	return b, chain, nil
}

// Balance returns the native balance of address in whole coins.
func (c *Chain) Balance(ctx context.Context, chainID int64, address string) (decimal.Decimal, error) {
	b, chain, err := c.backend(ctx, chainID)
	if err != nil {
		return decimal.Zero, err
	}
	wei, err := b.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance of %s on %s: %w", address, chain.Name, err)
	}
	return decimal.NewFromBigInt(wei, -chain.Native.Decimals), nil
}

// Subscription returns the plan bought by address on chainID.
func (c *Chain) Subscription(ctx context.Context, chainID int64, address string) (models.Subscription, error) {
	b, chain, err := c.backend(ctx, chainID)
	if err != nil {
		return models.Subscription{}, err
	}
	if chain.Subscription == "" {
		return models.Subscription{}, ErrNoSubscription
	}

	contract := bind.NewBoundContract(common.HexToAddress(chain.Subscription), c.subABI, b, nil, nil)
	var out []interface{}
	if err = contract.Call(&bind.CallOpts{Context: ctx}, &out, "getUserSubscription", common.HexToAddress(address)); err != nil {
		return models.Subscription{}, fmt.Errorf("getUserSubscription on %s: %w", chain.Name, err)
	}
	if len(out) != 2 {
		return models.Subscription{}, fmt.Errorf("getUserSubscription returned %d values", len(out))
	}
	plan, ok := out[0].(uint8)
	if !ok {
		return models.Subscription{}, fmt.Errorf("unexpected plan type %T", out[0])
	}
	expired, ok := out[1].(*big.Int)
	if !ok {
		return models.Subscription{}, fmt.Errorf("unexpected expiry type %T", out[1])
	}
	return models.Subscription{Plan: models.Plan(plan), ExpiredTime: expired}, nil
}

// Close drops every open connection.
func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, b := range c.backends {
		b.Close()
		delete(c.backends, id)
	}
}

// GenerateKey creates a new secp256k1 key. It returns the key as 64 hex chars
// and its checksummed address.
func GenerateKey() (string, string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", fmt.Errorf("generate key: %w", err)
	}
	return encodeKey(key)
}

// ParsePrivateKey validates a hex private key with or without 0x and returns
// it normalized with its checksummed address.
func ParsePrivateKey(s string) (string, string, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s) != 64 {
		return "", "", ErrInvalidPrivateKey
	}
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return "", "", ErrInvalidPrivateKey
	}
	return encodeKey(key)
}

// IsAddress reports whether s is a hex EVM address.
func IsAddress(s string) bool {
	return common.IsHexAddress(s)
}

func encodeKey(key *ecdsa.PrivateKey) (string, string, error) {
	pub, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return "", "", ErrInvalidPrivateKey
	}
	return common.Bytes2Hex(crypto.FromECDSA(key)), crypto.PubkeyToAddress(*pub).Hex(), nil
}
