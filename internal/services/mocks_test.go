package services

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"

	"github.com/rajiknows/dcex-project/internal/keyvault"
	"github.com/rajiknows/dcex-project/internal/network"
)

func testPublicKey(t *testing.T) solana.PublicKey {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return priv.PublicKey()
}

func testNetworkContext() *network.Context {
	return network.NewContext(network.Endpoints{
		Mainnet: "http://mainnet.invalid",
		Devnet:  "http://devnet.invalid",
	})
}

// mockVault returns an independent copy of the stored key material per call,
// mirroring the real vault.
type mockVault struct {
	priv solana.PrivateKey
	err  error
}

func newMockVault(t *testing.T) *mockVault {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return &mockVault{priv: priv}
}

func (m *mockVault) Resolve(ctx context.Context, userID string, net network.Network) (keyvault.Keypair, error) {
	if m.err != nil {
		return keyvault.Keypair{}, m.err
	}
	secret := make([]byte, len(m.priv))
	copy(secret, m.priv)
	return keyvault.Keypair{PublicKey: m.priv.PublicKey(), Secret: secret}, nil
}

// mockChain implements ChainClient with overridable behavior per call.
type mockChain struct {
	balance     uint64
	balanceErr  error
	balanceCall int

	tokenAccounts   map[solana.PublicKey]*token.Account
	tokenAccountErr error

	blockhashErr error
	blockHeight  uint64
	lastValid    uint64

	sendSig   solana.Signature
	sendErr   error
	sendCalls int

	statuses    []*rpc.SignatureStatusesResult
	statusErr   error
	statusCalls int
}

func newMockChain() *mockChain {
	return &mockChain{
		tokenAccounts: make(map[solana.PublicKey]*token.Account),
		lastValid:     1_000,
		blockHeight:   500,
		sendSig:       solana.Signature{1, 2, 3},
	}
}

func (m *mockChain) GetBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	m.balanceCall++
	return m.balance, m.balanceErr
}

func (m *mockChain) GetTokenAccount(ctx context.Context, account solana.PublicKey) (*token.Account, error) {
	if m.tokenAccountErr != nil {
		return nil, m.tokenAccountErr
	}
	acct, ok := m.tokenAccounts[account]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

func (m *mockChain) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	if m.blockhashErr != nil {
		return solana.Hash{}, 0, m.blockhashErr
	}
	return solana.Hash{9}, m.lastValid, nil
}

func (m *mockChain) GetBlockHeight(ctx context.Context) (uint64, error) {
	return m.blockHeight, nil
}

func (m *mockChain) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	m.sendCalls++
	if m.sendErr != nil {
		return solana.Signature{}, m.sendErr
	}
	return m.sendSig, nil
}

func (m *mockChain) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*rpc.SignatureStatusesResult, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	if m.statusCalls >= len(m.statuses) {
		if len(m.statuses) == 0 {
			return nil, nil
		}
		return m.statuses[len(m.statuses)-1], nil
	}
	status := m.statuses[m.statusCalls]
	m.statusCalls++
	return status, nil
}

// mockChainProvider serves the same client for both networks.
type mockChainProvider struct {
	chain ChainClient
}

func (m *mockChainProvider) ClientFor(net network.Network) ChainClient {
	return m.chain
}

// staticPrices is a fixed PriceSource for aggregator tests.
type staticPrices map[string]string

func (p staticPrices) Price(symbol string) string {
	if v, ok := p[symbol]; ok {
		return v
	}
	return "0"
}

var errBoom = errors.New("boom")
