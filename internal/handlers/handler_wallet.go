package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripkoro/wallet_ledger_svc/internal/apperrors"
	"github.com/tripkoro/wallet_ledger_svc/internal/core/domain"
	portssvc "github.com/tripkoro/wallet_ledger_svc/internal/core/ports/services"
	"github.com/tripkoro/wallet_ledger_svc/internal/core/services"
	"github.com/tripkoro/wallet_ledger_svc/internal/dto"
	"github.com/tripkoro/wallet_ledger_svc/internal/middleware"
)

// walletHandler handles HTTP requests related to wallets and ledger entries.
type walletHandler struct {
	walletService portssvc.WalletSvcFacade
}

// newWalletHandler creates a new walletHandler.
func newWalletHandler(ws portssvc.WalletSvcFacade) *walletHandler {
	return &walletHandler{
		walletService: ws,
	}
}

// registerWalletRoutes registers routes related to wallets and transactions.
func registerWalletRoutes(rg *gin.RouterGroup, walletService portssvc.WalletSvcFacade) {
	h := newWalletHandler(walletService)

	wallets := rg.Group("/wallets")
	{
		wallets.POST("", h.createWallet)
		wallets.GET("/:id", h.getWallet)
		wallets.GET("/user/:userID", h.getWalletByUser)
		wallets.POST("/:id/credit", h.creditWallet)
		wallets.POST("/:id/debit", h.debitWallet)
		wallets.POST("/:id/suspend", h.suspendWallet)
		wallets.POST("/:id/activate", h.activateWallet)
		wallets.POST("/:id/close", h.closeWallet)
		wallets.GET("/:id/transactions", h.listTransactions)
	}

	transactions := rg.Group("/transactions")
	{
		transactions.GET("/:id", h.getTransaction)
		transactions.POST("/:id/reverse", h.reverseTransaction)
	}
}

// respondLedgerError maps service errors to HTTP responses. Business rule
// rejections are 422, state races are 409, the rest follow the usual taxonomy.
func respondLedgerError(c *gin.Context, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, services.ErrInvalidAmount) || errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Resource not found", slog.String("action", action))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrWalletClosed),
		errors.Is(err, services.ErrWalletSuspended),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrNotReversible):
		logger.Warn("Ledger rule rejected operation", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyReversed),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Conflicting state", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInternal):
		logger.Error("Internal failure", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	default:
		logger.Error("Unexpected service error", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// createWallet godoc
// @Summary Create a wallet
// @Description Creates the single wallet for a user with a zero starting balance
// @Tags wallets
// @Accept  json
// @Produce  json
// @Param   wallet body dto.CreateWalletRequest true "Wallet details"
// @Success 201 {object} dto.WalletResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "User already has a wallet"
// @Failure 500 {object} map[string]string "Failed to create wallet"
// @Security BearerAuth
// @Router /wallets [post]
func (h *walletHandler) createWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateWallet", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("user_id", req.UserID))
	logger.Info("Received request to create wallet")

	wallet, err := h.walletService.CreateWallet(c.Request.Context(), req, actorID)
	if err != nil {
		respondLedgerError(c, logger, err, "create wallet")
		return
	}

	logger.Info("Wallet created successfully", slog.String("wallet_id", wallet.WalletID))
	c.JSON(http.StatusCreated, dto.ToWalletResponse(wallet))
}

// getWallet godoc
// @Summary Get a wallet by ID
// @Description Retrieves a wallet and its current balance
// @Tags wallets
// @Produce  json
// @Param   id path string true "Wallet ID"
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 500 {object} map[string]string "Failed to retrieve wallet"
// @Security BearerAuth
// @Router /wallets/{id} [get]
func (h *walletHandler) getWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	walletID := c.Param("id")
	logger = logger.With(slog.String("wallet_id", walletID))

	wallet, err := h.walletService.GetWalletByID(c.Request.Context(), walletID)
	if err != nil {
		respondLedgerError(c, logger, err, "retrieve wallet")
		return
	}
	c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

// getWalletByUser godoc
// @Summary Get a user's wallet
// @Description Retrieves the wallet owned by the given user
// @Tags wallets
// @Produce  json
// @Param   userID path string true "User ID"
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 500 {object} map[string]string "Failed to retrieve wallet"
// @Security BearerAuth
// @Router /wallets/user/{userID} [get]
func (h *walletHandler) getWalletByUser(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID := c.Param("userID")
	logger = logger.With(slog.String("user_id", userID))

	wallet, err := h.walletService.GetWalletByUserID(c.Request.Context(), userID)
	if err != nil {
		respondLedgerError(c, logger, err, "retrieve wallet")
		return
	}
	c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

// creditWallet godoc
// @Summary Credit a wallet
// @Description Adds funds to a wallet and appends the backing ledger entry
// @Tags wallets
// @Accept  json
// @Produce  json
// @Param   id path string true "Wallet ID"
// @Param   credit body dto.CreditWalletRequest true "Credit details"
// @Success 200 {object} dto.WalletOperationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 422 {object} map[string]string "Wallet is closed"
// @Failure 500 {object} map[string]string "Failed to credit wallet"
// @Security BearerAuth
// @Router /wallets/{id}/credit [post]
func (h *walletHandler) creditWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	walletID := c.Param("id")

	var req dto.CreditWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreditWallet", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("wallet_id", walletID), slog.String("reason_code", req.ReasonCode))
	logger.Info("Received request to credit wallet", slog.String("amount", req.Amount.String()))

	wallet, txn, err := h.walletService.CreditWallet(c.Request.Context(), walletID, req, actorID)
	if err != nil {
		respondLedgerError(c, logger, err, "credit wallet")
		return
	}

	logger.Info("Wallet credited successfully", slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusOK, dto.WalletOperationResponse{
		Wallet:      dto.ToWalletResponse(wallet),
		Transaction: dto.ToTransactionResponse(txn),
	})
}

// debitWallet godoc
// @Summary Debit a wallet
// @Description Removes funds from a wallet and appends the backing ledger entry
// @Tags wallets
// @Accept  json
// @Produce  json
// @Param   id path string true "Wallet ID"
// @Param   debit body dto.DebitWalletRequest true "Debit details"
// @Success 200 {object} dto.WalletOperationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 422 {object} map[string]string "Wallet not active or insufficient balance"
// @Failure 500 {object} map[string]string "Failed to debit wallet"
// @Security BearerAuth
// @Router /wallets/{id}/debit [post]
func (h *walletHandler) debitWallet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	walletID := c.Param("id")

	var req dto.DebitWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DebitWallet", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("wallet_id", walletID), slog.String("reason_code", req.ReasonCode))
	logger.Info("Received request to debit wallet", slog.String("amount", req.Amount.String()))

	wallet, txn, err := h.walletService.DebitWallet(c.Request.Context(), walletID, req, actorID)
	if err != nil {
		respondLedgerError(c, logger, err, "debit wallet")
		return
	}

	logger.Info("Wallet debited successfully", slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusOK, dto.WalletOperationResponse{
		Wallet:      dto.ToWalletResponse(wallet),
		Transaction: dto.ToTransactionResponse(txn),
	})
}

// suspendWallet godoc
// @Summary Suspend a wallet
// @Description Freezes debits from a wallet; credits continue to be accepted
// @Tags wallets
// @Produce  json
// @Param   id path string true "Wallet ID"
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 422 {object} map[string]string "Wallet is closed"
// @Failure 500 {object} map[string]string "Failed to suspend wallet"
// @Security BearerAuth
// @Router /wallets/{id}/suspend [post]
func (h *walletHandler) suspendWallet(c *gin.Context) {
	h.transitionWallet(c, "suspend wallet", h.walletService.SuspendWallet)
}

// activateWallet godoc
// @Summary Activate a suspended wallet
// @Description Returns a suspended wallet to active status
// @Tags wallets
// @Produce  json
// @Param   id path string true "Wallet ID"
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 422 {object} map[string]string "Wallet is not suspended"
// @Failure 500 {object} map[string]string "Failed to activate wallet"
// @Security BearerAuth
// @Router /wallets/{id}/activate [post]
func (h *walletHandler) activateWallet(c *gin.Context) {
	h.transitionWallet(c, "activate wallet", h.walletService.ActivateWallet)
}

// closeWallet godoc
// @Summary Close a wallet
// @Description Permanently closes a wallet; closed wallets accept no further activity
// @Tags wallets
// @Produce  json
// @Param   id path string true "Wallet ID"
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 500 {object} map[string]string "Failed to close wallet"
// @Security BearerAuth
// @Router /wallets/{id}/close [post]
func (h *walletHandler) closeWallet(c *gin.Context) {
	h.transitionWallet(c, "close wallet", h.walletService.CloseWallet)
}

func (h *walletHandler) transitionWallet(c *gin.Context, action string, fn func(ctx context.Context, walletID, actorID string) (*domain.Wallet, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	walletID := c.Param("id")

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("wallet_id", walletID))
	logger.Info("Received wallet status transition request", slog.String("action", action))

	wallet, err := fn(c.Request.Context(), walletID, actorID)
	if err != nil {
		respondLedgerError(c, logger, err, action)
		return
	}

	logger.Info("Wallet status transitioned", slog.String("status", string(wallet.Status)))
	c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

// listTransactions godoc
// @Summary List a wallet's ledger entries
// @Description Retrieves the wallet's transaction history, newest first, with token pagination
// @Tags wallets
// @Produce  json
// @Param   id path string true "Wallet ID"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Pagination token from the previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Wallet not found"
// @Failure 500 {object} map[string]string "Failed to list transactions"
// @Security BearerAuth
// @Router /wallets/{id}/transactions [get]
func (h *walletHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	walletID := c.Param("id")

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("wallet_id", walletID))

	resp, err := h.walletService.ListTransactionsByWallet(c.Request.Context(), walletID, params)
	if err != nil {
		respondLedgerError(c, logger, err, "list transactions")
		return
	}

	logger.Info("Transactions listed successfully", slog.Int("count", len(resp.Transactions)))
	c.JSON(http.StatusOK, resp)
}

// getTransaction godoc
// @Summary Get a ledger entry by ID
// @Description Retrieves a single wallet transaction record
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 500 {object} map[string]string "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *walletHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")
	logger = logger.With(slog.String("transaction_id", transactionID))

	txn, err := h.walletService.GetTransactionByID(c.Request.Context(), transactionID)
	if err != nil {
		respondLedgerError(c, logger, err, "retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// reverseTransaction godoc
// @Summary Reverse a completed transaction
// @Description Creates a compensating ledger entry and marks the original as reversed
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID to reverse"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 409 {object} map[string]string "Transaction already reversed"
// @Failure 422 {object} map[string]string "Transaction not reversible"
// @Failure 500 {object} map[string]string "Failed to reverse transaction"
// @Security BearerAuth
// @Router /transactions/{id}/reverse [post]
func (h *walletHandler) reverseTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("id")

	actorID, ok := middleware.GetActorIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("transaction_id", transactionID))
	logger.Info("Received request to reverse transaction")

	reversal, err := h.walletService.ReverseTransaction(c.Request.Context(), transactionID, actorID)
	if err != nil {
		respondLedgerError(c, logger, err, "reverse transaction")
		return
	}

	logger.Info("Transaction reversed successfully", slog.String("reversal_id", reversal.TransactionID))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(reversal))
}
