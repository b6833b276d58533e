package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rajiknows/dcex-project/internal/models"
	"github.com/rajiknows/dcex-project/internal/services"
	"github.com/rajiknows/dcex-project/pkg/logger"
)

// Auth validates the caller's API key and stores the owning user ID in the
// gin context for the handlers. Keys are accepted from the X-API-Key header
// or an Authorization bearer token. The key itself is never logged.
func Auth(authService services.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger().WithContext(c.Request.Context())

		apiKey := extractAPIKey(c)
		if apiKey == "" {
			log.Warn("Missing API key",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			models.HandleError(c, models.NewAppErrorWithDetails(
				models.ErrorCodeMissingAPIKey,
				"API key is required",
				"Provide an API key in the X-API-Key header or as an Authorization bearer token",
			), log)
			c.Abort()
			return
		}

		validated, err := authService.ValidateAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			log.Warn("API key validation failed",
				zap.Error(err),
				zap.String("client_ip", c.ClientIP()),
			)

			var appErr *models.AppError
			switch {
			case errors.Is(err, services.ErrInvalidAPIKey):
				appErr = models.NewAppError(models.ErrorCodeInvalidAPIKey, "Invalid API key")
			case errors.Is(err, services.ErrInactiveAPIKey):
				appErr = models.NewAppError(models.ErrorCodeUnauthorized, "API key is inactive")
			case errors.Is(err, services.ErrDatabaseError):
				appErr = models.NewAppErrorWithCause(models.ErrorCodeDatabaseError, "Authentication service unavailable", err)
			default:
				appErr = models.NewAppErrorWithCause(models.ErrorCodeInvalidAPIKey, "Authentication failed", err)
			}
			models.HandleError(c, appErr, log)
			c.Abort()
			return
		}

		c.Set("user_id", validated.UserID)
		c.Set("api_key_id", validated.ID.Hex())
		c.Set("api_key_name", validated.Name)

		ctx := logger.ContextWithUserID(c.Request.Context(), validated.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func extractAPIKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-API-Key")); key != "" {
		return key
	}

	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(header), "bearer") {
		return strings.TrimSpace(header[6:])
	}
	return header
}
