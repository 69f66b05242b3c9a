package node

import (
	"path/filepath"
	"testing"

	"litepeer.dev/client/crypto"
)

func TestLoadFromFileMissingYieldsEmptyWallet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallet.json")
	w, err := LoadFromFile(path, UnitTestParams)
	if err != nil {
		t.Fatal(err)
	}
	if got := w.GetBalance(BalanceAvailable); !got.IsZero() {
		t.Fatalf("fresh wallet should have zero balance, got %s", got.FriendlyString())
	}
}

func TestWalletSaveLoadRoundTrip(t *testing.T) {
	w, k := newTestWallet(t)
	params := UnitTestParams

	funding := fundingTx(k, params, mustNanoCoins(t, "1.00"))
	w.Receive(funding, nil, BestChain)

	other, _ := crypto.GenerateKey()
	spend, err := w.CreateSend(other.ToAddress(params.AddressHeader), mustNanoCoins(t, "0.30"), nil)
	if err != nil {
		t.Fatal(err)
	}
	w.ConfirmSend(spend)

	path := filepath.Join(t.TempDir(), "wallet.json")
	if err := w.SaveToFile(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromFile(path, params)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := loaded.GetBalance(BalanceAvailable), w.GetBalance(BalanceAvailable); got.Cmp(want) != 0 {
		t.Fatalf("available after reload = %s, want %s", got.FriendlyString(), want.FriendlyString())
	}
	if got, want := loaded.GetBalance(BalanceEstimated), w.GetBalance(BalanceEstimated); got.Cmp(want) != 0 {
		t.Fatalf("estimated after reload = %s, want %s", got.FriendlyString(), want.FriendlyString())
	}
	if len(loaded.keys) != 1 {
		t.Fatalf("got %d keys after reload, want 1", len(loaded.keys))
	}
	if !bytesEqual(loaded.keys[0].PublicKeyUncompressed(), k.PublicKeyUncompressed()) {
		t.Fatalf("reloaded key does not match the original")
	}
	if len(loaded.pending) != 1 {
		t.Fatalf("got %d pending txs after reload, want 1", len(loaded.pending))
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
