package dto

import (
	"time"

	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	PublicAddress string `json:"publicAddress" binding:"required,max=255"`
}

// AccountResponse defines the data returned for an account.
// The encrypted secret is never exposed.
type AccountResponse struct {
	ID            string    `json:"id"`
	PublicAddress string    `json:"publicAddress"`
	Balance       *string   `json:"balance,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateAccountResponse is returned once, on creation, and is the only
// response that carries the plaintext secret.
type CreateAccountResponse struct {
	AccountResponse
	Secret string `json:"secret"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		ID:            acc.ID,
		PublicAddress: acc.PublicAddress,
		CreatedAt:     acc.CreatedAt,
		UpdatedAt:     acc.UpdatedAt,
	}
}

// ToAccountWithBalanceResponse converts an account and its derived balance.
func ToAccountWithBalanceResponse(acc *domain.Account, balance decimal.Decimal) AccountResponse {
	res := ToAccountResponse(acc)
	formatted := domain.FormatAmount(balance)
	res.Balance = &formatted
	return res
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// AccountBalanceResponse defines the data returned for an account balance query.
type AccountBalanceResponse struct {
	AccountID string `json:"accountID"`
	Balance   string `json:"balance"`
}

// ToAccountBalanceResponse renders the balance with eight fractional digits.
func ToAccountBalanceResponse(accountID string, balance decimal.Decimal) AccountBalanceResponse {
	return AccountBalanceResponse{AccountID: accountID, Balance: domain.FormatAmount(balance)}
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
