package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/network"
	"github.com/rajiknows/dcex-project/internal/services"
	"github.com/rajiknows/dcex-project/pkg/logger"
	"github.com/rajiknows/dcex-project/pkg/mutex"
)

// SwapHandler runs the swap pipeline for authenticated users.
type SwapHandler struct {
	executor services.ExecutorInterface
	locks    *mutex.UserMutex
}

// NewSwapHandler creates a new SwapHandler instance.
func NewSwapHandler(executor services.ExecutorInterface, locks *mutex.UserMutex) *SwapHandler {
	return &SwapHandler{
		executor: executor,
		locks:    locks,
	}
}

// ExecuteSwap handles POST /api/swap requests. The caller supplies a quote
// previously obtained from POST /api/quote; signing happens entirely
// server-side with the wallet resolved from the authenticated user.
func (h *SwapHandler) ExecuteSwap(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	userID := c.GetString("user_id")
	if userID == "" {
		models.HandleError(c, models.NewAppError(models.ErrorCodeUnauthorized, "Missing authenticated user"), log)
		return
	}

	var req models.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid JSON in swap request", zap.Error(err))
		models.HandleError(c, models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		), log)
		return
	}

	if len(bytes.TrimSpace(req.QuoteResponse)) == 0 {
		models.HandleError(c, models.NewAppError(
			models.ErrorCodeInvalidRequest,
			"quoteResponse is required",
		), log)
		return
	}
	if req.SlippageBps < 0 {
		models.HandleError(c, models.NewAppError(
			models.ErrorCodeInvalidRequest,
			"slippageBps must not be negative",
		), log)
		return
	}

	net, err := network.Parse(req.Network)
	if err != nil {
		models.HandleError(c, models.NewAppErrorWithCause(
			models.ErrorCodeInvalidRequest,
			"Unknown network",
			err,
		), log)
		return
	}

	log.Info("Processing swap request",
		zap.String("network", net.String()),
		zap.Int("slippage_bps", req.SlippageBps),
	)

	// One in-flight swap per user keeps the custodial key from signing
	// concurrent transactions.
	h.locks.Lock(userID)
	defer h.locks.Unlock(userID)

	resp, err := h.executor.Execute(c.Request.Context(), userID, net, req.QuoteResponse, req.SlippageBps)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	log.Info("Swap confirmed",
		zap.String("txid", resp.TxID),
		zap.String("network", net.String()),
	)
	c.JSON(http.StatusOK, resp)
}
