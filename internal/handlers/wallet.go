package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rajiknows/dcex-project/internal/keyvault"
	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/network"
	"github.com/rajiknows/dcex-project/internal/services"
	"github.com/rajiknows/dcex-project/pkg/logger"
)

// WalletHandler exposes the authenticated user's wallet address. The response
// carries the public key only; secret key material never leaves the vault.
type WalletHandler struct {
	vault services.VaultInterface
}

// NewWalletHandler creates a new WalletHandler instance.
func NewWalletHandler(vault services.VaultInterface) *WalletHandler {
	return &WalletHandler{vault: vault}
}

// GetWallet handles GET /api/wallet requests.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	userID := c.GetString("user_id")
	if userID == "" {
		models.HandleError(c, models.NewAppError(models.ErrorCodeUnauthorized, "Missing authenticated user"), log)
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

	kp, err := h.vault.Resolve(c.Request.Context(), userID, net)
	if err != nil {
		switch {
		case errors.Is(err, keyvault.ErrWalletNotFound):
			err = models.NewAppError(models.ErrorCodeWalletNotFound, "No wallet is provisioned for this user")
		case errors.Is(err, keyvault.ErrKeyMaterialMissing):
			err = models.NewAppError(models.ErrorCodeKeyMaterialMissing, "Wallet key material is missing for this network")
		}
		models.HandleError(c, err, log)
		return
	}
	kp.Zero()

	c.JSON(http.StatusOK, models.WalletResponse{
		PublicKey: kp.PublicKey.String(),
		Network:   net.String(),
	})
}
