package chain

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig defaults: %v", err)
	}
	if cfg.DefaultChainID != 44787 {
		t.Fatalf("default chain id=%d, want 44787 (Alfajores)", cfg.DefaultChainID)
	}
	for _, id := range []uint64{44787, 42220} {
		n, err := cfg.Network(id)
		if err != nil {
			t.Fatalf("Network(%d): %v", id, err)
		}
		if n.ContractAddress.IsZero() {
			t.Fatalf("network %d has zero contract address after validation", id)
		}
		if n.ContractVersion != VersionOptimized {
			t.Fatalf("network %d version=%q, want optimized", id, n.ContractVersion)
		}
	}
	if _, err := cfg.Network(1); err == nil {
		t.Fatal("unknown chain id accepted")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.yaml")
	body := `
default_chain_id: 44787
networks:
  44787:
    chain_id: 44787
    name: Celo Alfajores
    rpc_url: https://alfajores-forno.celo-testnet.org
    contract_version: legacy
    contract_address: "0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	n := cfg.Default()
	if n.ContractVersion != VersionLegacy {
		t.Fatalf("version=%q, want legacy", n.ContractVersion)
	}
	if n.ContractAddress.Hex() != "0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3" {
		t.Fatalf("address=%s", n.ContractAddress.Hex())
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			name: "malformed_address",
			body: `
default_chain_id: 44787
networks:
  44787:
    chain_id: 44787
    rpc_url: http://localhost:8545
    contract_version: optimized
    contract_address: "0x1234"
`,
		},
		{
			name: "unknown_version",
			body: `
default_chain_id: 44787
networks:
  44787:
    chain_id: 44787
    rpc_url: http://localhost:8545
    contract_version: v3
    contract_address: "0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3"
`,
		},
		{
			name: "missing_rpc",
			body: `
default_chain_id: 44787
networks:
  44787:
    chain_id: 44787
    contract_version: optimized
    contract_address: "0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3"
`,
		},
		{
			name: "default_not_configured",
			body: `
default_chain_id: 1
networks:
  44787:
    chain_id: 44787
    rpc_url: http://localhost:8545
    contract_version: optimized
    contract_address: "0x7ed5cc0cf0b0532b52024a0dda8fae24c6f66dc3"
`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "chain.yaml")
			if err := os.WriteFile(path, []byte(tc.body), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}
