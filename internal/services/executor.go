package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rajiknows/dcex-project/internal/keyvault"
	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/network"
	"github.com/rajiknows/dcex-project/pkg/logger"
	"github.com/rajiknows/dcex-project/pkg/metrics"
)

// ExecState is one stage of the swap pipeline. Transitions are strictly
// linear; a failure at any stage is terminal and no stage is revisited.
type ExecState string

const (
	StateRequested        ExecState = "requested"
	StateWalletResolved   ExecState = "wallet_resolved"
	StateQuoteAccepted    ExecState = "quote_accepted"
	StateTransactionBuilt ExecState = "transaction_built"
	StateSigned           ExecState = "signed"
	StateSubmitted        ExecState = "submitted"
	StateConfirmed        ExecState = "confirmed"
	StateFailed           ExecState = "failed"
)

// Executor turns an accepted quote into a signed, submitted, confirmed
// on-chain transaction. At most one transaction is submitted per invocation;
// after a submit failure the caller must restart from a fresh quote, since
// the blockhash scoping the built transaction may have expired.
type Executor struct {
	vault   VaultInterface
	builder SwapBuilderInterface
	chains  ChainProvider
	netctx  *network.Context

	confirmTimeout time.Duration
	pollInterval   time.Duration

	// onTransition is a test hook; nil in production.
	onTransition func(ExecState)
}

// NewExecutor wires the swap pipeline.
func NewExecutor(vault VaultInterface, builder SwapBuilderInterface, chains ChainProvider, netctx *network.Context, confirmTimeout time.Duration) *Executor {
	return &Executor{
		vault:          vault,
		builder:        builder,
		chains:         chains,
		netctx:         netctx,
		confirmTimeout: confirmTimeout,
		pollInterval:   500 * time.Millisecond,
	}
}

func (e *Executor) transition(s ExecState) {
	if e.onTransition != nil {
		e.onTransition(s)
	}
}

// Execute runs the pipeline: resolve wallet, accept quote, build, sign,
// submit, confirm. Failures before submission have no on-chain side effect;
// a caller abandoning the request after submission does not roll back the
// transaction, which may still land on-chain.
func (e *Executor) Execute(ctx context.Context, userID string, net network.Network, rawQuote json.RawMessage, slippageBps int) (*models.SwapResponse, error) {
	log := logger.GetLogger().WithContext(ctx).WithFields(map[string]interface{}{
		"component": "executor",
		"network":   net.String(),
	})

	e.transition(StateRequested)

	kp, err := e.vault.Resolve(ctx, userID, net)
	if err != nil {
		e.transition(StateFailed)
		return nil, walletError(err)
	}
	defer kp.Zero()
	e.transition(StateWalletResolved)

	quote, err := parseQuote(rawQuote)
	if err != nil {
		e.transition(StateFailed)
		return nil, models.NewAppErrorWithCause(models.ErrorCodeMalformedQuote, "Quote payload is malformed", err)
	}
	if slippageBps > 0 {
		quote.SlippageBps = slippageBps
	}
	e.transition(StateQuoteAccepted)

	txBase64, err := e.builder.BuildSwapTransaction(ctx, quote, kp.PublicKey)
	if err != nil {
		e.transition(StateFailed)
		return nil, err
	}
	e.transition(StateTransactionBuilt)

	tx, err := signTransaction(txBase64, &kp)
	// The decoded secret key must not outlive this step.
	kp.Zero()
	if err != nil {
		e.transition(StateFailed)
		return nil, models.NewAppErrorWithCause(models.ErrorCodeSignFailure, "Failed to sign swap transaction", err)
	}
	e.transition(StateSigned)

	chain := e.chains.ClientFor(net)

	_, lastValidBlockHeight, err := chain.GetLatestBlockhash(ctx)
	if err != nil {
		e.transition(StateFailed)
		return nil, models.NewAppErrorWithCause(models.ErrorCodeSubmitFailure, "Failed to fetch block reference", err)
	}

	sig, err := chain.SendTransaction(ctx, tx)
	if err != nil {
		e.transition(StateFailed)
		metrics.SwapsTotal.WithLabelValues(net.String(), "submit_failure").Inc()
		return nil, models.NewAppErrorWithCause(models.ErrorCodeSubmitFailure, "Transaction submission failed", err)
	}
	e.transition(StateSubmitted)

	log.Info("Transaction submitted", zap.String("signature", sig.String()))

	if err := e.awaitConfirmation(ctx, chain, sig, lastValidBlockHeight); err != nil {
		e.transition(StateFailed)
		metrics.SwapsTotal.WithLabelValues(net.String(), "unconfirmed").Inc()
		return nil, err
	}
	e.transition(StateConfirmed)
	metrics.SwapsTotal.WithLabelValues(net.String(), "confirmed").Inc()

	log.Info("Transaction confirmed", zap.String("signature", sig.String()))

	return &models.SwapResponse{
		Success:     true,
		TxID:        sig.String(),
		ExplorerURL: e.netctx.ExplorerURL(net, sig.String()),
	}, nil
}

// walletError maps key vault failures onto the API taxonomy.
func walletError(err error) *models.AppError {
	switch {
	case errors.Is(err, keyvault.ErrWalletNotFound):
		return models.NewAppErrorWithCause(models.ErrorCodeWalletNotFound, "Wallet not found for this user", err)
	case errors.Is(err, keyvault.ErrKeyMaterialMissing):
		return models.NewAppErrorWithCause(models.ErrorCodeKeyMaterialMissing, "Keys not found for this network", err)
	default:
		return models.NewAppErrorWithCause(models.ErrorCodeDatabaseError, "Wallet lookup failed", err)
	}
}

// parseQuote decodes the caller-supplied quote. A JSON string wrapping a
// serialized quote is accepted for compatibility with the original web
// client.
func parseQuote(raw json.RawMessage) (*models.Quote, error) {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 || string(data) == "null" {
		return nil, errors.New("empty quote")
	}

	if data[0] == '"' {
		var unwrapped string
		if err := json.Unmarshal(data, &unwrapped); err != nil {
			return nil, err
		}
		data = []byte(unwrapped)
	}

	var quote models.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, err
	}
	if quote.InputMint == "" || quote.OutputMint == "" || quote.InAmount == "" || quote.OutAmount == "" {
		return nil, errors.New("quote missing required fields")
	}
	return &quote, nil
}

// signTransaction decodes the base64 transaction payload, reconstructs the
// secret key from its stored encoding, and signs in place. Any failure here
// means nothing was submitted.
func signTransaction(txBase64 string, kp *keyvault.Keypair) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return nil, fmt.Errorf("decode transaction payload: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("deserialize transaction: %w", err)
	}

	if len(kp.Secret) != keyvault.SecretKeyLength {
		return nil, fmt.Errorf("secret key material has invalid length %d", len(kp.Secret))
	}
	priv := solana.PrivateKey(kp.Secret)
	if !priv.PublicKey().Equals(kp.PublicKey) {
		return nil, errors.New("secret key does not match wallet public key")
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(kp.PublicKey) {
			return &priv
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return tx, nil
}

// awaitConfirmation polls the signature status at "confirmed" commitment.
// The wait is bounded by the blockhash validity window: once the chain's
// block height passes lastValidBlockHeight the transaction can no longer
// land, so further waiting is pointless.
func (e *Executor) awaitConfirmation(ctx context.Context, chain ChainClient, sig solana.Signature, lastValidBlockHeight uint64) error {
	ctx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		status, err := chain.GetSignatureStatus(ctx, sig)
		if err == nil && status != nil {
			if status.Err != nil {
				return models.NewAppErrorWithDetails(models.ErrorCodeOnChainError,
					"Transaction was rejected on chain", fmt.Sprintf("%v", status.Err))
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		if height, hErr := chain.GetBlockHeight(ctx); hErr == nil && height > lastValidBlockHeight {
			return models.NewAppError(models.ErrorCodeConfirmationTimeout,
				"Transaction not confirmed within its blockhash validity window")
		}

		select {
		case <-ctx.Done():
			return models.NewAppErrorWithCause(models.ErrorCodeConfirmationTimeout,
				"Timed out waiting for confirmation", ctx.Err())
		case <-ticker.C:
		}
	}
}
