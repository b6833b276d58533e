package network

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Network selects which Solana cluster a request operates against.
// It is a closed enum: every function that touches chain state takes it
// explicitly instead of branching on loose "isDevnet" strings.
type Network string

const (
	// NetworkMainnet is the live cluster holding real funds.
	NetworkMainnet Network = "mainnet"
	// NetworkDevnet is the test cluster.
	NetworkDevnet Network = "devnet"
)

// Parse converts a raw network string from a request into a Network.
// An empty string defaults to mainnet, matching the original API behavior.
func Parse(s string) (Network, error) {
	switch s {
	case "", "mainnet", "mainnet-beta":
		return NetworkMainnet, nil
	case "devnet":
		return NetworkDevnet, nil
	default:
		return "", fmt.Errorf("unknown network %q", s)
	}
}

// String implements fmt.Stringer.
func (n Network) String() string { return string(n) }

// Endpoints holds the per-cluster RPC endpoints. Populated once from
// configuration at startup and read-only afterwards.
type Endpoints struct {
	Mainnet string
	Devnet  string
}

// Context resolves a Network to its RPC endpoint, per-token mint address,
// and explorer URL. It is a pure function of its (read-only) configuration:
// the same selector always resolves to the same endpoint and mint set, so it
// is safe for concurrent use without locking.
type Context struct {
	endpoints Endpoints
	catalog   []SupportedToken
}

// NewContext builds a resolver over the given endpoints and the static
// token catalog.
func NewContext(endpoints Endpoints) *Context {
	return &Context{
		endpoints: endpoints,
		catalog:   SupportedTokens,
	}
}

// Endpoint returns the RPC endpoint for the selected network.
func (c *Context) Endpoint(n Network) string {
	if n == NetworkDevnet {
		return c.endpoints.Devnet
	}
	return c.endpoints.Mainnet
}

// Tokens returns the static token catalog. Callers must not mutate it.
func (c *Context) Tokens() []SupportedToken {
	return c.catalog
}

// MintFor resolves a token's mint address on the selected network. A token
// with no mint configured for the network (e.g. USDT on devnet) yields a
// *ConfigError; it is never silently defaulted.
func (c *Context) MintFor(n Network, t SupportedToken) (solana.PublicKey, error) {
	addr := t.Mint
	if n == NetworkDevnet {
		addr = t.DevnetMint
	}
	if addr == "" {
		return solana.PublicKey{}, &ConfigError{Token: t.Symbol, Network: n}
	}
	mint, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return solana.PublicKey{}, &ConfigError{Token: t.Symbol, Network: n, Cause: err}
	}
	return mint, nil
}

// ExplorerURL builds a Solscan link for a transaction id on the selected
// network.
func (c *Context) ExplorerURL(n Network, txID string) string {
	if n == NetworkDevnet {
		return fmt.Sprintf("https://solscan.io/tx/%s?cluster=devnet", txID)
	}
	return fmt.Sprintf("https://solscan.io/tx/%s", txID)
}

// ConfigError reports a token with no usable mint configuration on a
// network.
type ConfigError struct {
	Token   string
	Network Network
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no valid %s mint configured for %s: %v", e.Token, e.Network, e.Cause)
	}
	return fmt.Sprintf("no %s mint configured for %s", e.Token, e.Network)
}

func (e *ConfigError) Unwrap() error { return e.Cause }
