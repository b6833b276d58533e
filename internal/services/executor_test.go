package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajiknows/dcex-project/internal/keyvault"
	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/network"
)

// mockBuilder returns a canned base64 transaction payload.
type mockBuilder struct {
	payload  string
	err      error
	gotQuote *models.Quote
	calls    int
}

func (m *mockBuilder) BuildSwapTransaction(ctx context.Context, quote *models.Quote, userPublicKey solana.PublicKey) (string, error) {
	m.calls++
	m.gotQuote = quote
	if m.err != nil {
		return "", m.err
	}
	return m.payload, nil
}

// unsignedTransferTx builds a serialized unsigned transaction whose fee payer
// is the given wallet.
func unsignedTransferTx(t *testing.T, payer solana.PublicKey) string {
	t.Helper()

	dest, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, payer, dest.PublicKey()).Build(),
		},
		solana.Hash{7},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func validQuoteJSON() json.RawMessage {
	return json.RawMessage(`{
		"inputMint": "So11111111111111111111111111111111111111112",
		"inAmount": "1000000000",
		"outputMint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		"outAmount": "180000000",
		"otherAmountThreshold": "179100000",
		"slippageBps": 50
	}`)
}

func newTestExecutor(t *testing.T, vault VaultInterface, builder SwapBuilderInterface, chain ChainClient) (*Executor, *[]ExecState) {
	t.Helper()

	e := NewExecutor(vault, builder, &mockChainProvider{chain: chain}, testNetworkContext(), 2*time.Second)
	e.pollInterval = time.Millisecond

	states := &[]ExecState{}
	e.onTransition = func(s ExecState) { *states = append(*states, s) }
	return e, states
}

func TestExecuteHappyPath(t *testing.T) {
	vault := newMockVault(t)
	chain := newMockChain()
	chain.statuses = []*rpc.SignatureStatusesResult{
		{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
	}
	builder := &mockBuilder{payload: unsignedTransferTx(t, vault.priv.PublicKey())}

	e, states := newTestExecutor(t, vault, builder, chain)

	resp, err := e.Execute(context.Background(), "user-1", network.NetworkMainnet, validQuoteJSON(), 0)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, chain.sendSig.String(), resp.TxID)
	assert.Contains(t, resp.ExplorerURL, resp.TxID)

	assert.Equal(t, []ExecState{
		StateRequested,
		StateWalletResolved,
		StateQuoteAccepted,
		StateTransactionBuilt,
		StateSigned,
		StateSubmitted,
		StateConfirmed,
	}, *states)
	assert.Equal(t, 1, chain.sendCalls, "exactly one transaction submitted")
}

func TestExecuteWalletNotFound(t *testing.T) {
	vault := newMockVault(t)
	vault.err = keyvault.ErrWalletNotFound
	builder := &mockBuilder{}

	e, states := newTestExecutor(t, vault, builder, newMockChain())

	_, err := e.Execute(context.Background(), "user-1", network.NetworkMainnet, validQuoteJSON(), 0)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorCodeWalletNotFound, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)

	assert.Zero(t, builder.calls, "no aggregator call without a wallet")
	assert.Equal(t, []ExecState{StateRequested, StateFailed}, *states)
}

func TestExecuteKeyMaterialMissing(t *testing.T) {
	vault := newMockVault(t)
	vault.err = keyvault.ErrKeyMaterialMissing

	e, _ := newTestExecutor(t, vault, &mockBuilder{}, newMockChain())

	_, err := e.Execute(context.Background(), "user-1", network.NetworkDevnet, validQuoteJSON(), 0)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorCodeKeyMaterialMissing, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestExecuteMalformedQuote(t *testing.T) {
	vault := newMockVault(t)
	builder := &mockBuilder{}

	e, _ := newTestExecutor(t, vault, builder, newMockChain())

	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{"empty", json.RawMessage(``)},
		{"null", json.RawMessage(`null`)},
		{"not json", json.RawMessage(`{{`)},
		{"missing fields", json.RawMessage(`{"inputMint": "a"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(context.Background(), "user-1", network.NetworkMainnet, tt.raw, 0)
			require.Error(t, err)

			appErr, ok := err.(*models.AppError)
			require.True(t, ok)
			assert.Equal(t, models.ErrorCodeMalformedQuote, appErr.Code)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
		})
	}

	assert.Zero(t, builder.calls)
}

func TestExecuteAcceptsStringWrappedQuote(t *testing.T) {
	vault := newMockVault(t)
	chain := newMockChain()
	chain.statuses = []*rpc.SignatureStatusesResult{
		{ConfirmationStatus: rpc.ConfirmationStatusFinalized},
	}
	builder := &mockBuilder{payload: unsignedTransferTx(t, vault.priv.PublicKey())}

	e, _ := newTestExecutor(t, vault, builder, chain)

	wrapped, err := json.Marshal(string(validQuoteJSON()))
	require.NoError(t, err)

	resp, err := e.Execute(context.Background(), "user-1", network.NetworkMainnet, wrapped, 0)
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestExecuteSlippageOverride(t *testing.T) {
	vault := newMockVault(t)
	chain := newMockChain()
	chain.statuses = []*rpc.SignatureStatusesResult{
		{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
	}
	builder := &mockBuilder{payload: unsignedTransferTx(t, vault.priv.PublicKey())}

	e, _ := newTestExecutor(t, vault, builder, chain)

	_, err := e.Execute(context.Background(), "user-1", network.NetworkMainnet, validQuoteJSON(), 120)
	require.NoError(t, err)

	require.NotNil(t, builder.gotQuote)
	assert.Equal(t, 120, builder.gotQuote.SlippageBps)
}

func TestExecuteSubmitFailure(t *testing.T) {
	vault := newMockVault(t)
	chain := newMockChain()
	chain.sendErr = errBoom
	builder := &mockBuilder{payload: unsignedTransferTx(t, vault.priv.PublicKey())}

	e, states := newTestExecutor(t, vault, builder, chain)

	_, err := e.Execute(context.Background(), "user-1", network.NetworkMainnet, validQuoteJSON(), 0)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorCodeSubmitFailure, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)

	assert.Contains(t, *states, StateSigned)
	assert.NotContains(t, *states, StateSubmitted)
	assert.NotContains(t, *states, StateConfirmed)
}

func TestExecuteOnChainError(t *testing.T) {
	vault := newMockVault(t)
	chain := newMockChain()
	chain.statuses = []*rpc.SignatureStatusesResult{
		{Err: map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
	}
	builder := &mockBuilder{payload: unsignedTransferTx(t, vault.priv.PublicKey())}

	e, states := newTestExecutor(t, vault, builder, chain)

	_, err := e.Execute(context.Background(), "user-1", network.NetworkMainnet, validQuoteJSON(), 0)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorCodeOnChainError, appErr.Code)
	assert.Contains(t, *states, StateSubmitted)
	assert.NotContains(t, *states, StateConfirmed)
}

func TestExecuteConfirmationWindowExpires(t *testing.T) {
	vault := newMockVault(t)
	chain := newMockChain()
	chain.lastValid = 100
	chain.blockHeight = 101
	builder := &mockBuilder{payload: unsignedTransferTx(t, vault.priv.PublicKey())}

	e, _ := newTestExecutor(t, vault, builder, chain)

	_, err := e.Execute(context.Background(), "user-1", network.NetworkMainnet, validQuoteJSON(), 0)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorCodeConfirmationTimeout, appErr.Code)
}

func TestExecuteBuilderFailurePassesThrough(t *testing.T) {
	vault := newMockVault(t)
	builder := &mockBuilder{err: models.NewAppError(models.ErrorCodeUpstreamSwapError, "Aggregator request failed with status 500")}
	chain := newMockChain()

	e, states := newTestExecutor(t, vault, builder, chain)

	_, err := e.Execute(context.Background(), "user-1", network.NetworkMainnet, validQuoteJSON(), 0)
	require.Error(t, err)

	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.ErrorCodeUpstreamSwapError, appErr.Code)
	assert.Zero(t, chain.sendCalls, "nothing submitted when building fails")
	assert.NotContains(t, *states, StateSigned)
}

func TestSignTransactionRejectsMismatchedKey(t *testing.T) {
	payerPriv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	otherPriv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	payload := unsignedTransferTx(t, payerPriv.PublicKey())

	kp := keyvault.Keypair{
		PublicKey: payerPriv.PublicKey(),
		Secret:    []byte(otherPriv),
	}
	_, err = signTransaction(payload, &kp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestSignTransactionRejectsShortSecret(t *testing.T) {
	payerPriv, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	kp := keyvault.Keypair{
		PublicKey: payerPriv.PublicKey(),
		Secret:    []byte{1, 2, 3},
	}
	_, err = signTransaction(unsignedTransferTx(t, payerPriv.PublicKey()), &kp)
	require.Error(t, err)
}
