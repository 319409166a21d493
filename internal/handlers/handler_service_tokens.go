package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tripkoro/wallet_ledger_svc/internal/apperrors"
	portssvc "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/services"
	"github.com/tripkoro/wallet_ledger_svc/internal/dto"
	"github.com/tripkoro/wallet_ledger_svc/internal/middleware"
)

// serviceTokenHandler handles HTTP requests for caller service tokens.
type serviceTokenHandler struct {
	tokenService portssvc.ServiceTokenSvc
}

func newServiceTokenHandler(ts portssvc.ServiceTokenSvc) *serviceTokenHandler {
	return &serviceTokenHandler{
		tokenService: ts,
	}
}

// registerServiceTokenRoutes registers routes for managing service tokens.
func registerServiceTokenRoutes(rg *gin.RouterGroup, tokenService portssvc.ServiceTokenSvc) {
	h := newServiceTokenHandler(tokenService)

	tokens := rg.Group("/service-tokens")
	{
		tokens.POST("", h.createToken)
		tokens.GET("", h.listTokens)
		tokens.DELETE("/:id", h.revokeToken)
	}
}

// createToken godoc
// @Summary Mint a service token
// @Description Creates an API token for an internal caller service. The plaintext token is returned once and never stored.
// @Tags service-tokens
// @Accept  json
// @Produce  json
// @Param   token body dto.CreateServiceTokenRequest true "Token details"
// @Success 201 {object} dto.CreatedServiceTokenResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create service token"
// @Security BearerAuth
// @Router /service-tokens [post]
func (h *serviceTokenHandler) createToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateServiceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateServiceToken", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	var expiresIn *time.Duration
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expiresIn duration"})
			return
		}
		expiresIn = &d
	}

	logger = logger.With(slog.String("service_id", req.ServiceID))
	logger.Info("Received request to create service token", slog.String("token_name", req.Name))

	plaintext, token, err := h.tokenService.CreateToken(c.Request.Context(), req.ServiceID, req.Name, expiresIn)
	if err != nil {
		logger.Error("Failed to create service token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create service token"})
		return
	}

	logger.Info("Service token created", slog.String("token_id", token.ID))
	c.JSON(http.StatusCreated, dto.CreatedServiceTokenResponse{
		ServiceTokenResponse: dto.ToServiceTokenResponse(token),
		Token:                plaintext,
	})
}

// listTokens godoc
// @Summary List service tokens
// @Description Lists all tokens minted for a caller service
// @Tags service-tokens
// @Produce  json
// @Param   serviceID query string true "Caller service ID"
// @Success 200 {array} dto.ServiceTokenResponse
// @Failure 400 {object} map[string]string "Missing serviceID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list service tokens"
// @Security BearerAuth
// @Router /service-tokens [get]
func (h *serviceTokenHandler) listTokens(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	serviceID := c.Query("serviceID")
	if serviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serviceID query parameter is required"})
		return
	}

	tokens, err := h.tokenService.ListTokens(c.Request.Context(), serviceID)
	if err != nil {
		logger.Error("Failed to list service tokens", slog.String("service_id", serviceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list service tokens"})
		return
	}

	responses := make([]dto.ServiceTokenResponse, len(tokens))
	for i := range tokens {
		responses[i] = dto.ToServiceTokenResponse(&tokens[i])
	}
	c.JSON(http.StatusOK, responses)
}

// revokeToken godoc
// @Summary Revoke a service token
// @Description Deletes a token so the credential stops authenticating immediately
// @Tags service-tokens
// @Produce  json
// @Param   id path string true "Token ID"
// @Param   serviceID query string true "Caller service ID the token belongs to"
// @Success 204 "Token revoked"
// @Failure 400 {object} map[string]string "Missing serviceID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Token not found"
// @Failure 500 {object} map[string]string "Failed to revoke service token"
// @Security BearerAuth
// @Router /service-tokens/{id} [delete]
func (h *serviceTokenHandler) revokeToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tokenID := c.Param("id")

	serviceID := c.Query("serviceID")
	if serviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serviceID query parameter is required"})
		return
	}

	if err := h.tokenService.RevokeToken(c.Request.Context(), serviceID, tokenID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
			return
		}
		logger.Error("Failed to revoke service token", slog.String("token_id", tokenID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke service token"})
		return
	}

	logger.Info("Service token revoked", slog.String("token_id", tokenID))
	c.Status(http.StatusNoContent)
}
