package repositories

import (
	"context"

	"github.com/SscSPs/wallet_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByPublicAddress retrieves an account by its unique public address.
	FindAccountByPublicAddress(ctx context.Context, publicAddress string) (*domain.Account, error)

	// ListAccounts retrieves a page of accounts ordered by creation time.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account and stamps its audit timestamps.
	// A clashing public address yields apperrors.ErrDuplicate.
	SaveAccount(ctx context.Context, account *domain.Account) error

	// DeleteAccount removes an account that owns no ledger entries.
	// Accounts with entries yield apperrors.ErrConflict.
	DeleteAccount(ctx context.Context, accountID string) error
}

// AccountLocker is only available inside a ledger transaction.
type AccountLocker interface {
	// LockAccountForUpdate takes the exclusive row lock on the account and returns it.
	// The lock is held until the surrounding transaction ends.
	LockAccountForUpdate(ctx context.Context, accountID string) (*domain.Account, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
// This is a facade for clients that need access to all operations
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
