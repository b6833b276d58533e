package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rajiknows/dcex-project/internal/config"
	"github.com/rajiknows/dcex-project/internal/network"
)

// ErrAccountNotFound means the requested account does not exist on chain.
// For associated token accounts this is an expected steady state, not a
// failure: a wallet that never received a token has no account for it.
var ErrAccountNotFound = errors.New("account not found")

// submitMaxRetries bounds transport-level resubmission of a sent
// transaction. The executor never loops retries itself.
const submitMaxRetries uint = 2

// rpcChainClient implements ChainClient over gagliardetto's RPC client.
type rpcChainClient struct {
	client  *rpc.Client
	timeout time.Duration
}

func newRPCChainClient(endpoint string, timeout time.Duration) *rpcChainClient {
	return &rpcChainClient{
		client:  rpc.New(endpoint),
		timeout: timeout,
	}
}

func (c *rpcChainClient) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.client.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("getBalance: %w", err)
	}
	return out.Value, nil
}

func (c *rpcChainClient) GetTokenAccount(ctx context.Context, account solana.PublicKey) (*token.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.client.GetAccountInfo(ctx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo: %w", err)
	}
	if out.Value == nil {
		return nil, ErrAccountNotFound
	}

	var acct token.Account
	if err := bin.NewBinDecoder(out.Value.Data.GetBinary()).Decode(&acct); err != nil {
		return nil, fmt.Errorf("decode token account: %w", err)
	}
	return &acct, nil
}

func (c *rpcChainClient) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("getLatestBlockhash: %w", err)
	}
	return out.Value.Blockhash, out.Value.LastValidBlockHeight, nil
}

func (c *rpcChainClient) GetBlockHeight(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	height, err := c.client.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("getBlockHeight: %w", err)
	}
	return height, nil
}

func (c *rpcChainClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	maxRetries := submitMaxRetries
	sig, err := c.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		MaxRetries:          &maxRetries,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sendTransaction: %w", err)
	}
	return sig, nil
}

func (c *rpcChainClient) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("getSignatureStatuses: %w", err)
	}
	if len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

// ChainClients holds one RPC client per network, built once at startup from
// the network context's read-only endpoint configuration.
type ChainClients struct {
	mainnet ChainClient
	devnet  ChainClient
}

// NewChainClients dials both configured cluster endpoints.
func NewChainClients(netctx *network.Context, cfg *config.NetworksConfig) *ChainClients {
	return &ChainClients{
		mainnet: newRPCChainClient(netctx.Endpoint(network.NetworkMainnet), cfg.RequestTimeout),
		devnet:  newRPCChainClient(netctx.Endpoint(network.NetworkDevnet), cfg.RequestTimeout),
	}
}

// ClientFor implements ChainProvider.
func (c *ChainClients) ClientFor(net network.Network) ChainClient {
	if net == network.NetworkDevnet {
		return c.devnet
	}
	return c.mainnet
}

// IsHealthy checks that the mainnet RPC endpoint is responsive.
func (c *ChainClients) IsHealthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, _, err := c.mainnet.GetLatestBlockhash(ctx); err != nil {
		return fmt.Errorf("RPC health check failed: %w", err)
	}
	return nil
}
