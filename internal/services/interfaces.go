package services

import (
	"context"
	"encoding/json"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rajiknows/dcex-project/internal/keyvault"
	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/network"
)

// AuthServiceInterface defines the interface for authentication services
type AuthServiceInterface interface {
	ValidateAPIKey(ctx context.Context, key string) (*models.APIKey, error)
}

// VaultInterface resolves a user and network to a signing key pair.
type VaultInterface interface {
	Resolve(ctx context.Context, userID string, net network.Network) (keyvault.Keypair, error)
}

// ChainClient is the subset of Solana RPC operations the core uses. One
// client exists per network endpoint.
type ChainClient interface {
	// GetBalance returns the native balance in lamports.
	GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	// GetTokenAccount fetches and decodes an SPL token account.
	// Returns ErrAccountNotFound when the account does not exist.
	GetTokenAccount(ctx context.Context, account solana.PublicKey) (*token.Account, error)
	// GetLatestBlockhash returns the blockhash and last-valid-block-height
	// pair scoping a transaction's validity window.
	GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	// GetBlockHeight returns the current block height.
	GetBlockHeight(ctx context.Context) (uint64, error)
	// SendTransaction submits a signed transaction with preflight disabled
	// and bounded transport-level retries.
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	// GetSignatureStatus returns the confirmation status of a submitted
	// signature, or nil when the cluster does not know it yet.
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error)
}

// ChainProvider resolves a network selector to its RPC client.
type ChainProvider interface {
	ClientFor(net network.Network) ChainClient
}

// QuoteServiceInterface requests swap quotes from the external aggregator.
type QuoteServiceInterface interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount float64, decimals, slippageBps int) (*models.Quote, error)
}

// SwapBuilderInterface asks the aggregator for a ready-to-sign transaction.
type SwapBuilderInterface interface {
	BuildSwapTransaction(ctx context.Context, quote *models.Quote, userPublicKey solana.PublicKey) (string, error)
}

// ExecutorInterface runs the full swap pipeline for a user.
type ExecutorInterface interface {
	Execute(ctx context.Context, userID string, net network.Network, rawQuote json.RawMessage, slippageBps int) (*models.SwapResponse, error)
}

// AggregatorInterface resolves every supported token's balance for an
// address.
type AggregatorInterface interface {
	Aggregate(ctx context.Context, address string, net network.Network) (*models.TokenReport, error)
}

// PriceSource supplies the current price for a token symbol as a
// string-encoded decimal.
type PriceSource interface {
	Price(symbol string) string
}
