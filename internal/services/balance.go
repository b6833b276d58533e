package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/network"
	"github.com/rajiknows/dcex-project/pkg/logger"
	"github.com/rajiknows/dcex-project/pkg/metrics"
)

// Aggregator resolves every supported token's balance for an address on one
// network, in parallel, and totals the USD value. Reports are recomputed on
// every request; nothing here is cached.
type Aggregator struct {
	chains ChainProvider
	netctx *network.Context
	prices PriceSource
}

// NewAggregator wires the balance aggregator.
func NewAggregator(chains ChainProvider, netctx *network.Context, prices PriceSource) *Aggregator {
	return &Aggregator{
		chains: chains,
		netctx: netctx,
		prices: prices,
	}
}

// Aggregate fetches all per-token balances concurrently. An invalid address
// is terminal; a single token's fetch failure is not, it degrades to a zero
// balance so one flaky lookup cannot abort the whole report. Report ordering
// follows the static catalog, not fetch completion order.
func (a *Aggregator) Aggregate(ctx context.Context, address string, net network.Network) (*models.TokenReport, error) {
	owner, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, models.NewAppErrorWithCause(models.ErrorCodeInvalidAddress, "Invalid address format", err)
	}

	log := logger.GetLogger().WithContext(ctx).WithFields(map[string]interface{}{
		"component": "balance_aggregator",
		"address":   address,
		"network":   net.String(),
	})

	chain := a.chains.ClientFor(net)
	tokens := a.netctx.Tokens()
	balances := make([]float64, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	for i, tok := range tokens {
		i, tok := i, tok
		g.Go(func() error {
			balances[i] = a.tokenBalance(gctx, log, chain, net, tok, owner)
			return nil
		})
	}
	// Per-token failures already degraded to zero; nothing to propagate.
	_ = g.Wait()

	report := &models.TokenReport{Tokens: make([]models.TokenBalance, 0, len(tokens))}
	var total float64

	for i, tok := range tokens {
		priceStr := a.prices.Price(tok.Symbol)
		price, perr := strconv.ParseFloat(priceStr, 64)
		if perr != nil {
			log.Warn("Unparsable token price, treating as zero",
				zap.String("token", tok.Symbol),
				zap.String("price", priceStr),
			)
			price = 0
		}

		usd := balances[i] * price
		total += usd

		// A token without a deployment on this network reports an empty
		// mint rather than another cluster's address.
		mintStr := ""
		if mint, merr := a.netctx.MintFor(net, tok); merr == nil {
			mintStr = mint.String()
		}

		report.Tokens = append(report.Tokens, models.TokenBalance{
			Symbol:     tok.Symbol,
			Mint:       mintStr,
			Native:     tok.Native,
			Price:      priceStr,
			Image:      tok.Image,
			Decimals:   tok.Decimals,
			Balance:    fmt.Sprintf("%.6f", balances[i]),
			USDBalance: fmt.Sprintf("%.2f", usd),
		})
	}

	// Rounded once, here; intermediate math stays unrounded.
	report.TotalBalance = fmt.Sprintf("%.2f", total)
	return report, nil
}

// tokenBalance resolves one token's balance in display units. Every failure
// path returns zero: a missing mint configuration, a missing associated
// token account (the normal state for a never-funded token), or a transient
// fetch error.
func (a *Aggregator) tokenBalance(ctx context.Context, log *logger.Logger, chain ChainClient, net network.Network, tok network.SupportedToken, owner solana.PublicKey) float64 {
	mint, err := a.netctx.MintFor(net, tok)
	if err != nil {
		log.Warn("Token has no mint on this network", zap.String("token", tok.Symbol), zap.Error(err))
		return 0
	}

	if tok.Native {
		lamports, err := chain.GetBalance(ctx, owner)
		if err != nil {
			metrics.BalanceFetchErrors.WithLabelValues(net.String(), tok.Symbol).Inc()
			log.Warn("Native balance fetch failed", zap.String("token", tok.Symbol), zap.Error(err))
			return 0
		}
		return float64(lamports) / network.LamportsPerSOL
	}

	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		metrics.BalanceFetchErrors.WithLabelValues(net.String(), tok.Symbol).Inc()
		log.Warn("Associated token address derivation failed", zap.String("token", tok.Symbol), zap.Error(err))
		return 0
	}

	acct, err := chain.GetTokenAccount(ctx, ata)
	if errors.Is(err, ErrAccountNotFound) {
		return 0
	}
	if err != nil {
		metrics.BalanceFetchErrors.WithLabelValues(net.String(), tok.Symbol).Inc()
		log.Warn("Token account fetch failed", zap.String("token", tok.Symbol), zap.Error(err))
		return 0
	}

	return float64(acct.Amount) / math.Pow10(int(tok.Decimals))
}
