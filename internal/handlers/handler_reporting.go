package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/services"
	"github.com/tripkoro/wallet_ledger_svc/internal/middleware"
)

// reportingHandler handles HTTP requests for ledger-wide aggregates.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

func newReportingHandler(rs portssvc.ReportingSvcFacade) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
	}
}

// registerReportingRoutes registers reporting routes.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := newReportingHandler(reportingService)

	reporting := rg.Group("/reporting")
	{
		reporting.GET("/wallet-stats", h.getWalletStats)
	}
}

// getWalletStats godoc
// @Summary Get ledger-wide wallet statistics
// @Description Aggregates total balance, wallet counts by status and transaction totals. Figures are read without locks and may trail in-flight transactions.
// @Tags reporting
// @Produce  json
// @Param   includeReasons query bool false "Include per-reason-code breakdown" default(false)
// @Success 200 {object} dto.WalletStatsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to compute wallet stats"
// @Security BearerAuth
// @Router /reporting/wallet-stats [get]
func (h *reportingHandler) getWalletStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	includeReasons := c.Query("includeReasons") == "true"

	stats, err := h.reportingService.GetWalletStats(c.Request.Context(), includeReasons)
	if err != nil {
		logger.Error("Failed to compute wallet stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute wallet stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
