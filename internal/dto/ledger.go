package dto

import (
	"time"

	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerOperationRequest is the body of a deposit or withdrawal.
// Amount accepts both JSON numbers and strings.
type LedgerOperationRequest struct {
	AccountID string          `json:"accountID" binding:"required"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"string" example:"100.50"`
}

// TransactionResponse defines the data returned for a ledger entry.
type TransactionResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"accountID"`
	Amount        string    `json:"amount"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	SettlementRef *string   `json:"settlementRef"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToTransactionResponse converts a domain.LedgerEntry to its DTO.
func ToTransactionResponse(e *domain.LedgerEntry) TransactionResponse {
	return TransactionResponse{
		ID:            e.ID,
		AccountID:     e.AccountID,
		Amount:        domain.FormatAmount(e.Amount),
		Type:          string(e.Type),
		Status:        string(e.Status),
		SettlementRef: e.SettlementRef,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// ToListTransactionResponse converts a slice of entries, preserving order.
func ToListTransactionResponse(entries []domain.LedgerEntry) []TransactionResponse {
	res := make([]TransactionResponse, len(entries))
	for i := range entries {
		res[i] = ToTransactionResponse(&entries[i])
	}
	return res
}

// AccountTransactionsResponse is the full history of one account.
type AccountTransactionsResponse struct {
	AccountID    string                `json:"accountID"`
	Transactions []TransactionResponse `json:"transactions"`
}

// ListTransactionsParams defines query parameters for listing entries.
type ListTransactionsParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListTransactionsResponse wraps a page of entries.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}
