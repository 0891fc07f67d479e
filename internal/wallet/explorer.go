package wallet

import "fmt"

// DefaultCluster is the cluster the explorer assumes when no query parameter
// is present.
const DefaultCluster = "mainnet"

// ExplorerURL builds the block explorer link for a transaction signature. The
// cluster parameter is omitted for mainnet, which the explorer treats as its
// default.
func ExplorerURL(signature string, cluster string) string {
	url := fmt.Sprintf("https://explorer.solana.com/tx/%s", signature)
	if cluster != "" && cluster != DefaultCluster {
		url += "?cluster=" + cluster
	}
	return url
}
