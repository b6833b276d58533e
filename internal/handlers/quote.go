package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/network"
	"github.com/rajiknows/dcex-project/internal/services"
	"github.com/rajiknows/dcex-project/pkg/logger"
)

// QuoteHandler proxies quote requests to the swap aggregator.
type QuoteHandler struct {
	quotes services.QuoteServiceInterface
}

// NewQuoteHandler creates a new QuoteHandler instance.
func NewQuoteHandler(quotes services.QuoteServiceInterface) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// GetQuote handles POST /api/quote requests.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid JSON in quote request", zap.Error(err))
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		), log)
		return
	}

	// Quotes themselves are network-independent upstream, but an unknown
	// selector is still a caller mistake and rejected like everywhere else.
	if _, err := network.Parse(req.Network); err != nil {
		models.HandleError(c, models.NewAppErrorWithCause(
			models.ErrorCodeInvalidRequest,
			"Unknown network",
			err,
		), log)
		return
	}

	log.Info("Requesting quote",
		zap.String("base_mint", req.BaseMint),
		zap.String("quote_mint", req.QuoteMint),
		zap.Float64("amount", req.Amount),
	)

	quote, err := h.quotes.GetQuote(c.Request.Context(), req.BaseMint, req.QuoteMint, req.Amount, req.Decimals, req.SlippageBps)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, quote)
}
