package network

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() *Context {
	return NewContext(Endpoints{
		Mainnet: "https://api.mainnet-beta.solana.com",
		Devnet:  "https://api.devnet.solana.com",
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Network
		wantErr bool
	}{
		{"mainnet", NetworkMainnet, false},
		{"mainnet-beta", NetworkMainnet, false},
		{"devnet", NetworkDevnet, false},
		{"", NetworkMainnet, false}, // default
		{"testnet", "", true},
		{"Mainnet", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestEndpointResolution(t *testing.T) {
	ctx := testContext()

	assert.Equal(t, "https://api.mainnet-beta.solana.com", ctx.Endpoint(NetworkMainnet))
	assert.Equal(t, "https://api.devnet.solana.com", ctx.Endpoint(NetworkDevnet))
}

// Resolution must be a pure function of the selector: repeated calls yield
// identical results.
func TestResolutionIsPure(t *testing.T) {
	ctx := testContext()

	for i := 0; i < 3; i++ {
		assert.Equal(t, "https://api.mainnet-beta.solana.com", ctx.Endpoint(NetworkMainnet))
		for _, tok := range ctx.Tokens() {
			first, firstErr := ctx.MintFor(NetworkDevnet, tok)
			second, secondErr := ctx.MintFor(NetworkDevnet, tok)
			assert.Equal(t, first, second)
			assert.Equal(t, firstErr == nil, secondErr == nil)
		}
	}
}

func TestMintForMainnet(t *testing.T) {
	ctx := testContext()

	for _, tok := range ctx.Tokens() {
		mint, err := ctx.MintFor(NetworkMainnet, tok)
		require.NoError(t, err, "token %s", tok.Symbol)
		assert.Equal(t, tok.Mint, mint.String())
	}
}

func TestMintForMissingDevnetMint(t *testing.T) {
	ctx := testContext()

	var usdt SupportedToken
	for _, tok := range ctx.Tokens() {
		if tok.Symbol == "USDT" {
			usdt = tok
		}
	}
	require.Equal(t, "USDT", usdt.Symbol)

	_, err := ctx.MintFor(NetworkDevnet, usdt)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "USDT", cfgErr.Token)
	assert.Equal(t, NetworkDevnet, cfgErr.Network)
}

func TestExplorerURL(t *testing.T) {
	ctx := testContext()

	assert.Equal(t, "https://solscan.io/tx/abc123", ctx.ExplorerURL(NetworkMainnet, "abc123"))
	assert.Equal(t, "https://solscan.io/tx/abc123?cluster=devnet", ctx.ExplorerURL(NetworkDevnet, "abc123"))
}

func TestCatalogOrder(t *testing.T) {
	assert.Equal(t, []string{"SOL", "USDC", "USDT"}, TokenSymbols())

	sol := SupportedTokens[0]
	assert.True(t, sol.Native)
	assert.EqualValues(t, 9, sol.Decimals)
}
