package chain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ContractVersion string

const (
	// VersionLegacy is the first SimpleBadge deployment: claim/claimed
	// semantics, uint256 module indices.
	VersionLegacy ContractVersion = "legacy"
	// VersionOptimized is the current deployment: enroll/isEnrolled,
	// uint8 module indices.
	VersionOptimized ContractVersion = "optimized"
)

// Network is the single configuration point for one chain: exactly one
// contract version and address is authoritative per network, and the
// same Network value feeds both the read and the write path. There is
// deliberately no automatic failover to the other version: facts
// recorded under the old contract do not exist under the new one, and
// moving them is a one-time backfill (cmd/backfill_badges), never a
// read-time concern.
type Network struct {
	ChainID         uint64          `yaml:"chain_id"`
	Name            string          `yaml:"name"`
	RPCURL          string          `yaml:"rpc_url"`
	ExplorerURL     string          `yaml:"explorer_url"`
	ContractVersion ContractVersion `yaml:"contract_version"`
	ContractAddress Address         `yaml:"-"`

	RawContractAddress string `yaml:"contract_address"`
}

type Config struct {
	DefaultChainID uint64             `yaml:"default_chain_id"`
	Networks       map[uint64]Network `yaml:"networks"`
}

// Historical deployments on Celo. The legacy address only matters for
// the backfill job and for networks explicitly pinned to the legacy
// version.
const (
	alfajoresOptimizedAddress = "0x4193d2f9bf93495d4665c485a3b8aadaf78cdf29"
	mainnetOptimizedAddress   = "0xf8ca094fd88f259df35e0b8a9f38df8f4f28f336"

	AlfajoresLegacyAddress = "0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3"
)

func Defaults() Config {
	return Config{
		DefaultChainID: 44787,
		Networks: map[uint64]Network{
			44787: {
				ChainID:            44787,
				Name:               "Celo Alfajores",
				RPCURL:             "https://alfajores-forno.celo-testnet.org",
				ExplorerURL:        "https://alfajores.celoscan.io",
				ContractVersion:    VersionOptimized,
				RawContractAddress: alfajoresOptimizedAddress,
			},
			42220: {
				ChainID:            42220,
				Name:               "Celo",
				RPCURL:             "https://forno.celo.org",
				ExplorerURL:        "https://celoscan.io",
				ContractVersion:    VersionOptimized,
				RawContractAddress: mainnetOptimizedAddress,
			},
		},
	}
}

// LoadConfig reads the YAML network config, or falls back to the built
// in Celo defaults when path is empty. Validation is fatal here by
// contract: a malformed address must stop startup, not surface per
// call.
func LoadConfig(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read chain config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse chain config %s: %w", path, err)
		}
		cfg = fileCfg
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Networks) == 0 {
		return fmt.Errorf("chain config: no networks configured")
	}
	if _, ok := c.Networks[c.DefaultChainID]; !ok {
		return fmt.Errorf("chain config: default chain id %d not configured", c.DefaultChainID)
	}
	for id, n := range c.Networks {
		if n.ChainID != id {
			return fmt.Errorf("chain config: network key %d has chain_id %d", id, n.ChainID)
		}
		if n.RPCURL == "" {
			return fmt.Errorf("chain config: network %d missing rpc_url", id)
		}
		switch n.ContractVersion {
		case VersionLegacy, VersionOptimized:
		default:
			return fmt.Errorf("chain config: network %d has unknown contract_version %q", id, n.ContractVersion)
		}
		addr, err := ParseAddress(n.RawContractAddress)
		if err != nil {
			return fmt.Errorf("chain config: network %d: %w", id, err)
		}
		if addr.IsZero() {
			return fmt.Errorf("chain config: network %d has zero contract address", id)
		}
		n.ContractAddress = addr
		c.Networks[id] = n
	}
	return nil
}

// Network returns the configured network for a chain id.
func (c Config) Network(chainID uint64) (Network, error) {
	n, ok := c.Networks[chainID]
	if !ok {
		return Network{}, fmt.Errorf("chain %d not configured", chainID)
	}
	return n, nil
}

func (c Config) Default() Network {
	return c.Networks[c.DefaultChainID]
}
