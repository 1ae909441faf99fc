package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/wallet_ledger/internal/core/ports/services"
	"github.com/SscSPs/wallet_ledger/internal/dto"
	"github.com/SscSPs/wallet_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ledgerHandler handles deposits, withdrawals and entry lookups.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers routes related to ledger entries.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	txns := rg.Group("/transactions")
	{
		txns.GET("", h.listTransactions)
		txns.GET("/:id", h.getTransaction)
		txns.POST("/deposit", h.deposit)
		txns.POST("/withdraw", h.withdraw)
	}
}

// deposit godoc
// @Summary Deposit into an account
// @Description Records a deposit and settles it. A settlement failure leaves a failed entry and returns 500.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   request body dto.LedgerOperationRequest true "Account and amount"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid amount"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to record deposit"
// @Security BearerAuth
// @Router /transactions/deposit [post]
func (h *ledgerHandler) deposit(c *gin.Context) {
	h.record(c, domain.EntryTypeDeposit, h.ledgerService.Deposit, "Failed to record deposit")
}

// withdraw godoc
// @Summary Withdraw from an account
// @Description Records a withdrawal after checking funds under the account lock, then settles it.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   request body dto.LedgerOperationRequest true "Account and amount"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid amount or insufficient funds"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to record withdrawal"
// @Security BearerAuth
// @Router /transactions/withdraw [post]
func (h *ledgerHandler) withdraw(c *gin.Context) {
	h.record(c, domain.EntryTypeWithdrawal, h.ledgerService.Withdraw, "Failed to record withdrawal")
}

type ledgerOp func(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.LedgerEntry, error)

func (h *ledgerHandler) record(c *gin.Context, entryType domain.EntryType, op ledgerOp, failMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.LedgerOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, logger, err)
		return
	}

	logger = logger.With(slog.String("account_id", req.AccountID), slog.String("type", string(entryType)))
	entry, err := op(c.Request.Context(), req.AccountID, req.Amount)
	if err != nil {
		if entry != nil {
			logger = logger.With(slog.String("entry_id", entry.ID), slog.String("status", string(entry.Status)))
		}
		respondError(c, logger, err, failMsg)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(entry))
}

// getTransaction godoc
// @Summary Get a transaction by ID
// @Tags transactions
// @Produce  json
// @Param   id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} dto.ErrorResponse "Transaction not found"
// @Failure 500 {object} dto.ErrorResponse "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	entry, err := h.ledgerService.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transaction")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(entry))
}

// listTransactions godoc
// @Summary List transactions
// @Description Retrieves entries across all accounts, newest first, using token-based pagination
// @Tags transactions
// @Produce  json
// @Param   limit query int false "Limit number of results" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} dto.ErrorResponse "Failed to list transactions"
// @Security BearerAuth
// @Router /transactions [get]
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, logger, err)
		return
	}

	resp, err := h.ledgerService.ListTransactions(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, resp)
}
