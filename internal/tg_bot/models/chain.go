package models

import (
	"math/big"
	"time"
)

// Chain describes an EVM network the bot can read balances from.
type Chain struct {
	ID           int64    `yaml:"id"`
	Name         string   `yaml:"name"`
	RPC          string   `yaml:"rpc"`
	Explorer     Explorer `yaml:"explorer"`
	Native       Native   `yaml:"native"`
	Subscription string   `yaml:"subscription"` // subscription contract address, empty when not deployed
}

type Explorer struct {
	Name    string `yaml:"name"`
	Root    string `yaml:"root"`
	Address string `yaml:"address"`
}

type Native struct {
	Symbol   string `yaml:"symbol"`
	Decimals int32  `yaml:"decimals"`
}

// AddressURL returns the explorer page of an address.
func (c Chain) AddressURL(address string) string {
	return c.Explorer.Root + c.Explorer.Address + address
}

// Plan is a subscription tier.
type Plan uint8

const (
	PlanBasic Plan = iota
	PlanPro
	PlanUltimate
)

func (p Plan) String() string {
	switch p {
	case PlanBasic:
		return "Basic"
	case PlanPro:
		return "Pro"
	case PlanUltimate:
		return "Ultimate"
	default:
		return "Unknown"
	}
}

// Subscription is the on-chain subscription of an address.
type Subscription struct {
	Plan        Plan     `json:"plan"`
	ExpiredTime *big.Int `json:"expiredTime"`
}

// Allows reports whether the subscription covers the required plan at now.
func (s Subscription) Allows(required Plan, now time.Time) bool {
	if s.ExpiredTime == nil {
		return false
	}
	return s.ExpiredTime.Cmp(big.NewInt(now.Unix())) >= 0 && required <= s.Plan
}
