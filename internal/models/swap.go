package models

import "encoding/json"

// Quote is a priced, time-bounded exchange proposal from the Jupiter
// aggregator. It is transient: requested, consumed to build a transaction,
// never persisted or cached (validity is scoped to ContextSlot upstream).
type Quote struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode,omitempty"`
	SlippageBps          int             `json:"slippageBps"`
	PlatformFee          json.RawMessage `json:"platformFee,omitempty"`
	PriceImpactPct       string          `json:"priceImpactPct,omitempty"`
	RoutePlan            []RouteStep     `json:"routePlan,omitempty"`
	ContextSlot          uint64          `json:"contextSlot,omitempty"`
	TimeTaken            float64         `json:"timeTaken,omitempty"`
}

// RouteStep is one leg of a quoted route.
type RouteStep struct {
	SwapInfo RouteSwapInfo `json:"swapInfo"`
	Percent  float64       `json:"percent"`
}

// RouteSwapInfo describes the AMM hop inside a route step.
type RouteSwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label,omitempty"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// QuoteRequest is the body of POST /api/quote.
type QuoteRequest struct {
	BaseMint    string  `json:"baseMint"`
	QuoteMint   string  `json:"quoteMint"`
	Amount      float64 `json:"amount"`
	Decimals    int     `json:"decimals"`
	Network     string  `json:"network"`
	SlippageBps int     `json:"slippageBps"`
}

// SwapRequest is the body of POST /api/swap. QuoteResponse is kept raw: the
// executor parses it so a malformed quote is reported as MALFORMED_QUOTE
// rather than a generic binding error, and a JSON-string-wrapped quote (as
// the original web client sent) is still accepted.
type SwapRequest struct {
	QuoteResponse json.RawMessage `json:"quoteResponse"`
	Network       string          `json:"network"`
	SlippageBps   int             `json:"slippageBps"`
}

// SwapResponse is the success body of POST /api/swap.
type SwapResponse struct {
	Success     bool   `json:"success"`
	TxID        string `json:"txid"`
	ExplorerURL string `json:"explorerUrl"`
}

// WalletResponse is the body of GET /api/wallet. It deliberately carries the
// public key only; secret key material is never serialized to a client.
type WalletResponse struct {
	PublicKey string `json:"publicKey"`
	Network   string `json:"network"`
}
