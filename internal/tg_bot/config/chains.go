package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/DenisKhanov/HashieldBot/internal/tg_bot/models"
	"gopkg.in/yaml.v3"
)

//go:embed chains.yaml
var defaultChains []byte

// Chains is the registry of supported networks keyed by chain id.
type Chains map[int64]models.Chain

// LoadChains reads the chain registry from path, or the embedded defaults
// when path is empty.
func LoadChains(path string) (Chains, error) {
	data := defaultChains
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read chains file %s: %w", path, err)
		}
	}
	return ParseChains(data)
}

func ParseChains(data []byte) (Chains, error) {
	var doc struct {
		Chains []models.Chain `yaml:"chains"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse chains: %w", err)
	}

	chains := make(Chains, len(doc.Chains))
	for _, c := range doc.Chains {
		if c.ID == 0 || c.RPC == "" {
			return nil, fmt.Errorf("chain %q needs an id and an rpc url", c.Name)
		}
		if _, dup := chains[c.ID]; dup {
			return nil, fmt.Errorf("chain %d defined twice", c.ID)
		}
		if c.Native.Decimals == 0 {
			c.Native.Decimals = 18
		}
		chains[c.ID] = c
	}
	return chains, nil
}

// Get returns the chain with id.
func (c Chains) Get(id int64) (models.Chain, error) {
	chain, ok := c[id]
	if !ok {
		return models.Chain{}, fmt.Errorf("chain %d is not configured", id)
	}
	return chain, nil
}

// IDs returns the configured chain ids in ascending order.
func (c Chains) IDs() []int64 {
	ids := make([]int64, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
