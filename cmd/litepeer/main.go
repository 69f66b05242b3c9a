// Command litepeer is the thin example collaborator spec.md §6 calls
// for: `litepeer [testnet]`. It wires the block-chain engine, a
// file-backed wallet, and (if a peer address is configured) a single
// outbound connection together, and is explicitly out of the
// specification's core (spec.md §1's "out of scope" list names the
// command-line example programs).
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"litepeer.dev/client/node"
	"litepeer.dev/client/node/p2p"
	"litepeer.dev/client/node/store"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := node.DefaultConfig()
	cfg := defaults

	fs := flag.NewFlagSet("litepeer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.DataDir, "datadir", defaults.DataDir, "node data directory")
	fs.StringVar(&cfg.PeerAddr, "peer", defaults.PeerAddr, "single peer host:port to connect to")
	fs.StringVar(&cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug|info|warn|error")
	dryRun := fs.Bool("dry-run", false, "print effective config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 && fs.Arg(0) == "testnet" {
		cfg.Network = node.TestNet3Params.Name
	}

	if err := node.ValidateConfig(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return 2
	}
	params, err := cfg.NetworkParams()
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	if *dryRun {
		fmt.Fprintf(stdout, "network=%s datadir=%s peer=%s\n", cfg.Network, cfg.DataDir, cfg.PeerAddr)
		return 0
	}

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		fmt.Fprintf(stderr, "datadir create failed: %v\n", err)
		return 1
	}

	blockStore, err := store.OpenBoltStore(cfg.DataDir + "/headers.db")
	if err != nil {
		fmt.Fprintf(stderr, "block store open failed: %v\n", err)
		return 1
	}
	defer blockStore.Close()

	walletPath := cfg.DataDir + "/wallet.json"
	wallet, err := node.LoadFromFile(walletPath, params)
	if err != nil {
		fmt.Fprintf(stderr, "wallet load failed: %v\n", err)
		return 1
	}
	defer wallet.SaveToFile(walletPath)

	chain, err := node.NewBlockChain(blockStore, params, wallet)
	if err != nil {
		fmt.Fprintf(stderr, "chain init failed: %v\n", err)
		return 1
	}

	head, err := chain.ChainHead()
	if err != nil {
		fmt.Fprintf(stderr, "chain head unavailable: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "%s: height=%d balance=%s\n", cfg.Network, head.Height, wallet.GetBalance(node.BalanceAvailable).FriendlyString())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if cfg.PeerAddr == "" {
		<-sigCh
		return 0
	}

	go func() {
		if err := runPeer(cfg.PeerAddr, params, chain, wallet); err != nil {
			fmt.Fprintf(stderr, "peer session ended: %v\n", err)
		}
	}()

	<-sigCh
	return 0
}

// runPeer dials one peer, performs the handshake, and feeds incoming
// block/tx messages into the chain engine and wallet.
func runPeer(addr string, params node.Params, chain *node.BlockChain, wallet *node.Wallet) error {
	raw, err := net.DialTimeout("tcp", addr, p2p.HandshakeTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer raw.Close()

	conn := p2p.NewConn(raw, params.Magic, false)
	ours := p2p.VersionMsg{
		ProtocolVersion: 70001,
		Services:        0,
		Timestamp:       time.Now().Unix(),
		Nonce:           0,
		SubVersion:      "/litepeer:0.1/",
		StartHeight:     0,
	}
	result, err := p2p.Handshake(conn, ours)
	if err != nil {
		return fmt.Errorf("handshake with %s: %w", addr, err)
	}
	_ = result

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		typed, err := p2p.Decode(msg, ours.ProtocolVersion)
		if err != nil {
			return fmt.Errorf("decode %q: %w", msg.Command, err)
		}
		switch m := typed.(type) {
		case *p2p.BlockMsg:
			if _, err := chain.Add(m.Block); err != nil {
				fmt.Printf("litepeer: rejected block: %v\n", err)
			}
		case *p2p.TxMsg:
			wallet.Receive(m.Tx, nil, node.BestChain)
		default:
			// Unknown or not-yet-wired message kinds are tolerated,
			// per spec.md §4.2 step 4.
		}
	}
}
