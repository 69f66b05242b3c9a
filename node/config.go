package node

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// Config is the ambient configuration surface of the example
// collaborator (spec.md §6's "CLI surface", expanded per the ambient
// stack this module still needs even though the CLI itself is
// informative-only), grounded on the teacher's node/config.go.
type Config struct {
	Network  string   `json:"network"`
	DataDir  string   `json:"data_dir"`
	PeerAddr string   `json:"peer_addr"`
	LogLevel string   `json:"log_level"`
	Peers    []string `json:"peers"`
}

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".litepeer"
	}
	return filepath.Join(home, ".litepeer")
}

func DefaultConfig() Config {
	return Config{
		Network:  MainNetParams.Name,
		DataDir:  DefaultDataDir(),
		LogLevel: "info",
	}
}

// NetworkParams resolves a Config's network name to its Params, as the
// CLI surface's `<program> [testnet]` argument does (spec.md §6).
func (c Config) NetworkParams() (Params, error) {
	switch c.Network {
	case MainNetParams.Name:
		return MainNetParams, nil
	case TestNet3Params.Name:
		return TestNet3Params, nil
	case UnitTestParams.Name:
		return UnitTestParams, nil
	default:
		return Params{}, fmt.Errorf("config: unknown network %q", c.Network)
	}
}

func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if _, err := cfg.NetworkParams(); err != nil {
		return err
	}
	if cfg.PeerAddr != "" {
		if err := validateAddr(cfg.PeerAddr); err != nil {
			return fmt.Errorf("invalid peer_addr: %w", err)
		}
	}
	for _, peer := range cfg.Peers {
		if err := validateAddr(peer); err != nil {
			return fmt.Errorf("invalid peer %q: %w", peer, err)
		}
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	return nil
}

func validateAddr(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("empty address")
	}
	_, _, err := net.SplitHostPort(addr)
	return err
}
