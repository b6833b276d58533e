package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"

	"github.com/gagliardetto/solana-go"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/rajiknows/dcex-project/internal/config"
	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/pkg/logger"
	"github.com/rajiknows/dcex-project/pkg/metrics"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// upstreamBodyLimit caps how much of an aggregator error body is read back
// into an error message.
const upstreamBodyLimit = 4 << 10

// JupiterClient talks to the external swap aggregator: quote discovery and
// swap-transaction building. Quotes are latency-sensitive and idempotent to
// re-request, so no call here retries.
type JupiterClient struct {
	quoteURL string
	swapURL  string
	http     *http.Client
}

// NewJupiterClient creates a client for the configured aggregator endpoints.
func NewJupiterClient(cfg *config.JupiterConfig) *JupiterClient {
	return &JupiterClient{
		quoteURL: cfg.QuoteURL,
		swapURL:  cfg.SwapURL,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// SmallestUnit converts a display amount to the token's smallest integer
// unit: round(amount * 10^decimals).
func SmallestUnit(amount float64, decimals int) uint64 {
	return uint64(math.Round(amount * math.Pow10(decimals)))
}

// GetQuote requests a swap quote. Preconditions are validated before any
// outbound call; aggregator failures surface as UPSTREAM_QUOTE_ERROR
// carrying the upstream status and message.
func (c *JupiterClient) GetQuote(ctx context.Context, inputMint, outputMint string, amount float64, decimals, slippageBps int) (*models.Quote, error) {
	switch {
	case inputMint == "" || outputMint == "":
		return nil, models.NewAppErrorWithDetails(models.ErrorCodeInvalidRequest,
			"Missing or invalid required fields", "baseMint and quoteMint are required")
	case amount <= 0:
		return nil, models.NewAppErrorWithDetails(models.ErrorCodeInvalidRequest,
			"Missing or invalid required fields", "amount must be greater than zero")
	case decimals < 0:
		return nil, models.NewAppErrorWithDetails(models.ErrorCodeInvalidRequest,
			"Missing or invalid required fields", "decimals must be non-negative")
	case slippageBps < 0:
		return nil, models.NewAppErrorWithDetails(models.ErrorCodeInvalidRequest,
			"Missing or invalid required fields", "slippageBps must be non-negative")
	}

	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", fmt.Sprintf("%d", SmallestUnit(amount, decimals)))
	q.Set("slippageBps", fmt.Sprintf("%d", slippageBps))
	q.Set("restrictIntermediateTokens", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.quoteURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, models.NewAppErrorWithCause(models.ErrorCodeUpstreamQuoteError, "Failed to build quote request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamCalls.WithLabelValues("quote", "error").Inc()
		return nil, models.NewAppErrorWithCause(models.ErrorCodeUpstreamQuoteError, "Quote aggregator unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamCalls.WithLabelValues("quote", "error").Inc()
		return nil, upstreamError(models.ErrorCodeUpstreamQuoteError, resp)
	}

	var quote models.Quote
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&quote); err != nil {
		metrics.UpstreamCalls.WithLabelValues("quote", "error").Inc()
		return nil, models.NewAppErrorWithCause(models.ErrorCodeUpstreamQuoteError, "Unparsable quote response", err)
	}

	metrics.UpstreamCalls.WithLabelValues("quote", "ok").Inc()
	return &quote, nil
}

// swapBuildRequest is the aggregator's swap-build payload. The wrap/unwrap
// flag is always enabled so native SOL legs are handled transparently.
type swapBuildRequest struct {
	QuoteResponse    *models.Quote `json:"quoteResponse"`
	UserPublicKey    string        `json:"userPublicKey"`
	WrapAndUnwrapSol bool          `json:"wrapAndUnwrapSol"`
}

// BuildSwapTransaction sends the accepted quote plus the wallet's public key
// to the aggregator and returns the base64-encoded unsigned transaction.
func (c *JupiterClient) BuildSwapTransaction(ctx context.Context, quote *models.Quote, userPublicKey solana.PublicKey) (string, error) {
	body, err := jsonCodec.Marshal(swapBuildRequest{
		QuoteResponse:    quote,
		UserPublicKey:    userPublicKey.String(),
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return "", models.NewAppErrorWithCause(models.ErrorCodeUpstreamSwapError, "Failed to encode swap request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.swapURL, bytes.NewReader(body))
	if err != nil {
		return "", models.NewAppErrorWithCause(models.ErrorCodeUpstreamSwapError, "Failed to build swap request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamCalls.WithLabelValues("swap_build", "error").Inc()
		return "", models.NewAppErrorWithCause(models.ErrorCodeUpstreamSwapError, "Swap aggregator unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamCalls.WithLabelValues("swap_build", "error").Inc()
		return "", upstreamError(models.ErrorCodeUpstreamSwapError, resp)
	}

	var out struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.UpstreamCalls.WithLabelValues("swap_build", "error").Inc()
		return "", models.NewAppErrorWithCause(models.ErrorCodeUpstreamSwapError, "Unparsable swap response", err)
	}
	if out.SwapTransaction == "" {
		metrics.UpstreamCalls.WithLabelValues("swap_build", "error").Inc()
		return "", models.NewAppError(models.ErrorCodeUpstreamSwapError, "Swap response missing transaction payload")
	}

	metrics.UpstreamCalls.WithLabelValues("swap_build", "ok").Inc()
	return out.SwapTransaction, nil
}

// upstreamError turns a non-2xx aggregator response into an AppError that
// carries the upstream status and message.
func upstreamError(code models.ErrorCode, resp *http.Response) *models.AppError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, upstreamBodyLimit))

	message := string(bytes.TrimSpace(raw))
	var envelope struct {
		Error string `json:"error"`
	}
	if err := jsonCodec.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		message = envelope.Error
	}

	logger.GetLogger().Warn("Aggregator returned an error",
		zap.String("kind", string(code)),
		zap.Int("status", resp.StatusCode),
		zap.String("message", message),
	)

	appErr := models.NewAppErrorWithDetails(code,
		fmt.Sprintf("Aggregator request failed with status %d", resp.StatusCode),
		message,
	)
	if code == models.ErrorCodeUpstreamQuoteError {
		// Quote failures pass the upstream status through; swap-build
		// failures stay a 500 from the executor's pipeline.
		appErr.WithStatus(resp.StatusCode)
	}
	return appErr
}
