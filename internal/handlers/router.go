package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rajiknows/dcex-project/internal/middleware"
	"github.com/rajiknows/dcex-project/internal/services"
	"github.com/rajiknows/dcex-project/pkg/metrics"
	"github.com/rajiknows/dcex-project/pkg/mutex"
)

// Router wires handlers onto the gin engine.
type Router struct {
	auth   services.AuthServiceInterface
	swap   *SwapHandler
	quote  *QuoteHandler
	tokens *TokensHandler
	wallet *WalletHandler
	health *HealthHandler
}

// NewRouter creates a Router with all handlers.
func NewRouter(
	auth services.AuthServiceInterface,
	executor services.ExecutorInterface,
	quotes services.QuoteServiceInterface,
	aggregator services.AggregatorInterface,
	vault services.VaultInterface,
	locks *mutex.UserMutex,
	health *HealthHandler,
) *Router {
	return &Router{
		auth:   auth,
		swap:   NewSwapHandler(executor, locks),
		quote:  NewQuoteHandler(quotes),
		tokens: NewTokensHandler(aggregator),
		wallet: NewWalletHandler(vault),
		health: health,
	}
}

// SetupRoutes configures all API routes.
func (r *Router) SetupRoutes(engine *gin.Engine) {
	api := engine.Group("/api")
	{
		api.POST("/quote", r.quote.GetQuote)
		api.GET("/tokens", r.tokens.GetTokens)

		authed := api.Group("")
		authed.Use(middleware.Auth(r.auth))
		{
			authed.POST("/swap", r.swap.ExecuteSwap)
			authed.GET("/wallet", r.wallet.GetWallet)
		}
	}

	engine.GET("/metrics", metrics.Handler())
}

// SetupHealthRoutes configures health check routes.
func (r *Router) SetupHealthRoutes(engine *gin.Engine) {
	health := engine.Group("/health")
	{
		health.GET("", r.health.GetHealth)
		health.GET("/live", r.health.GetLiveness)
		health.GET("/ready", r.health.GetReadiness)
		health.GET("/db", r.health.GetDatabaseHealth)
	}
}
