package services

import (
	"context"

	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	"github.com/SscSPs/wallet_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// LedgerReaderSvc defines read operations for ledger entries
type LedgerReaderSvc interface {
	// ListTransactionsForAccount returns all entries of the account, newest first.
	ListTransactionsForAccount(ctx context.Context, accountID string) ([]domain.LedgerEntry, error)

	// GetTransaction retrieves a single entry.
	GetTransaction(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// ListTransactions retrieves a token-paginated list of entries across accounts.
	ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// LedgerWriterSvc defines the balance-changing operations
type LedgerWriterSvc interface {
	// Deposit records and settles a deposit. The returned entry is completed,
	// or failed together with a non-nil error.
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.LedgerEntry, error)

	// Withdraw records and settles a withdrawal after checking funds under the account lock.
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.LedgerEntry, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
