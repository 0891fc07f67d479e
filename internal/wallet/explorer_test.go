package wallet

import "testing"

func TestExplorerURL(t *testing.T) {
	cases := []struct {
		name      string
		signature string
		cluster   string
		want      string
	}{
		{"mainnet omits the cluster", "abc123", "mainnet", "https://explorer.solana.com/tx/abc123"},
		{"empty cluster omits the parameter", "abc123", "", "https://explorer.solana.com/tx/abc123"},
		{"devnet appends the cluster", "abc123", "devnet", "https://explorer.solana.com/tx/abc123?cluster=devnet"},
		{"testnet appends the cluster", "xyz", "testnet", "https://explorer.solana.com/tx/xyz?cluster=testnet"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExplorerURL(tc.signature, tc.cluster); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
