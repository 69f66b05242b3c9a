package node

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestNetworkParamsResolvesKnownNetworks(t *testing.T) {
	cases := map[string]Params{
		"main":     MainNetParams,
		"test":     TestNet3Params,
		"unittest": UnitTestParams,
	}
	for name, want := range cases {
		cfg := Config{Network: name}
		got, err := cfg.NetworkParams()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.Magic != want.Magic {
			t.Fatalf("%s: magic = %#x, want %#x", name, got.Magic, want.Magic)
		}
	}
}

func TestNetworkParamsRejectsUnknownNetwork(t *testing.T) {
	cfg := Config{Network: "nonexistent"}
	if _, err := cfg.NetworkParams(); err == nil {
		t.Fatalf("expected an error for an unknown network")
	}
}

func TestValidateConfigRejectsEmptyDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "  "
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected an error for an empty data_dir")
	}
}

func TestValidateConfigRejectsBadPeerAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "info"
	cfg.PeerAddr = "not-a-host-port"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected an error for a malformed peer_addr")
	}
}

func TestValidateConfigRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected an error for an unrecognized log level")
	}
}

func TestValidateConfigAcceptsValidPeerList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Peers = []string{"127.0.0.1:8333", "example.org:18333"}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("expected valid peer list to pass: %v", err)
	}
}
