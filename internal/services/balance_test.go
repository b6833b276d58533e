package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/network"
)

var testPrices = staticPrices{"SOL": "180", "USDC": "1", "USDT": "1"}

func testOwner(t *testing.T) solana.PublicKey {
	t.Helper()
	return testPublicKey(t)
}

func ataFor(t *testing.T, owner solana.PublicKey, mintBase58 string) solana.PublicKey {
	t.Helper()
	mint, err := solana.PublicKeyFromBase58(mintBase58)
	require.NoError(t, err)
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	return ata
}

func usdcMint() string {
	for _, tok := range network.SupportedTokens {
		if tok.Symbol == "USDC" {
			return tok.Mint
		}
	}
	return ""
}

func TestAggregateNativeOnly(t *testing.T) {
	owner := testOwner(t)
	chain := newMockChain()
	chain.balance = 2 * network.LamportsPerSOL

	agg := NewAggregator(&mockChainProvider{chain: chain}, testNetworkContext(), testPrices)

	report, err := agg.Aggregate(context.Background(), owner.String(), network.NetworkMainnet)
	require.NoError(t, err)

	require.Len(t, report.Tokens, len(network.SupportedTokens))

	sol := report.Tokens[0]
	assert.Equal(t, "SOL", sol.Symbol)
	assert.True(t, sol.Native)
	assert.Equal(t, "2.000000", sol.Balance)
	assert.Equal(t, "360.00", sol.USDBalance)

	// Unfunded token accounts report zero, never an error.
	for _, tok := range report.Tokens[1:] {
		assert.Equal(t, "0.000000", tok.Balance)
		assert.Equal(t, "0.00", tok.USDBalance)
	}

	assert.Equal(t, "360.00", report.TotalBalance)
}

func TestAggregateTokenAccountBalance(t *testing.T) {
	owner := testOwner(t)
	chain := newMockChain()
	chain.balance = 1 * network.LamportsPerSOL
	chain.tokenAccounts[ataFor(t, owner, usdcMint())] = &token.Account{Amount: 1_500_000}

	agg := NewAggregator(&mockChainProvider{chain: chain}, testNetworkContext(), testPrices)

	report, err := agg.Aggregate(context.Background(), owner.String(), network.NetworkMainnet)
	require.NoError(t, err)

	byName := make(map[string]models.TokenBalance)
	for _, tok := range report.Tokens {
		byName[tok.Symbol] = tok
	}

	assert.Equal(t, "1.500000", byName["USDC"].Balance)
	assert.Equal(t, "1.50", byName["USDC"].USDBalance)
	assert.Equal(t, "1.000000", byName["SOL"].Balance)
	assert.Equal(t, "181.50", report.TotalBalance)
}

func TestAggregateInvalidAddress(t *testing.T) {
	agg := NewAggregator(&mockChainProvider{chain: newMockChain()}, testNetworkContext(), testPrices)

	_, err := agg.Aggregate(context.Background(), "not-a-real-address", network.NetworkMainnet)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorCodeInvalidAddress, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
}

func TestAggregateDegradesOnFetchFailure(t *testing.T) {
	owner := testOwner(t)
	chain := newMockChain()
	chain.balanceErr = errBoom
	chain.tokenAccountErr = errBoom

	agg := NewAggregator(&mockChainProvider{chain: chain}, testNetworkContext(), testPrices)

	report, err := agg.Aggregate(context.Background(), owner.String(), network.NetworkMainnet)
	require.NoError(t, err, "individual fetch failures never abort the report")

	for _, tok := range report.Tokens {
		assert.Equal(t, "0.000000", tok.Balance)
	}
	assert.Equal(t, "0.00", report.TotalBalance)
}

func TestAggregateReportsNetworkResolvedMints(t *testing.T) {
	owner := testOwner(t)
	agg := NewAggregator(&mockChainProvider{chain: newMockChain()}, testNetworkContext(), testPrices)

	report, err := agg.Aggregate(context.Background(), owner.String(), network.NetworkDevnet)
	require.NoError(t, err)

	byName := make(map[string]models.TokenBalance)
	for _, tok := range report.Tokens {
		byName[tok.Symbol] = tok
	}

	for _, tok := range network.SupportedTokens {
		assert.Equal(t, tok.DevnetMint, byName[tok.Symbol].Mint,
			"%s must report the devnet mint, not mainnet's", tok.Symbol)
	}
	assert.Empty(t, byName["USDT"].Mint, "no USDT deployment exists on devnet")
}

// Repeated aggregation over unchanged chain state must produce an identical
// report, ordering included.
func TestAggregateCatalogOrderIsStable(t *testing.T) {
	owner := testOwner(t)
	chain := newMockChain()
	chain.balance = 2 * network.LamportsPerSOL
	chain.tokenAccounts[ataFor(t, owner, usdcMint())] = &token.Account{Amount: 750_000}

	agg := NewAggregator(&mockChainProvider{chain: chain}, testNetworkContext(), testPrices)

	first, err := agg.Aggregate(context.Background(), owner.String(), network.NetworkMainnet)
	require.NoError(t, err)
	second, err := agg.Aggregate(context.Background(), owner.String(), network.NetworkMainnet)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for i := range first.Tokens {
		assert.Equal(t, network.SupportedTokens[i].Symbol, first.Tokens[i].Symbol)
	}
}

func TestAggregateUnparsablePriceTreatedAsZero(t *testing.T) {
	owner := testOwner(t)
	chain := newMockChain()
	chain.balance = 3 * network.LamportsPerSOL

	agg := NewAggregator(&mockChainProvider{chain: chain}, testNetworkContext(), staticPrices{"SOL": "not-a-number"})

	report, err := agg.Aggregate(context.Background(), owner.String(), network.NetworkMainnet)
	require.NoError(t, err)

	sol := report.Tokens[0]
	assert.Equal(t, "3.000000", sol.Balance)
	assert.Equal(t, "0.00", sol.USDBalance)
	assert.Equal(t, "0.00", report.TotalBalance)
}
