package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/network"
	"github.com/rajiknows/dcex-project/internal/services"
	"github.com/rajiknows/dcex-project/pkg/logger"
)

// TokensHandler reports per-token balances for an address.
type TokensHandler struct {
	aggregator services.AggregatorInterface
}

// NewTokensHandler creates a new TokensHandler instance.
func NewTokensHandler(aggregator services.AggregatorInterface) *TokensHandler {
	return &TokensHandler{aggregator: aggregator}
}

// GetTokens handles GET /api/tokens requests. Every supported token is
// reported even when its balance is zero or its account does not exist.
func (h *TokensHandler) GetTokens(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidRequest,
			"address query parameter is required",
			"Pass the wallet address as ?address=<base58>",
		), log)
		return
	}

	net, err := network.Parse(c.Query("network"))
	if err != nil {
		models.HandleError(c, models.NewAppErrorWithCause(
			models.ErrorCodeInvalidRequest,
			"Unknown network",
			err,
		), log)
		return
	}

	log.Info("Aggregating token balances",
		zap.String("network", net.String()),
	)

	report, err := h.aggregator.Aggregate(c.Request.Context(), address, net)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, report)
}
