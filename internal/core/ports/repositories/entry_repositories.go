package repositories

import (
	"context"

	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryReader defines read operations for ledger entries
type EntryReader interface {
	// FindEntryByID retrieves a single ledger entry.
	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// ListEntriesByAccountID returns every entry of the account, newest first
	// (created_at DESC, id DESC).
	ListEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error)

	// ListEntries returns a page of entries across all accounts, newest first,
	// and the token for the following page (nil when exhausted).
	ListEntries(ctx context.Context, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)
}

// EntrySummer computes aggregate amounts used to derive balances.
type EntrySummer interface {
	// SumEntryAmounts totals entries of the account with the given type and status.
	// No matching rows yields zero.
	SumEntryAmounts(ctx context.Context, accountID string, entryType domain.EntryType, status domain.EntryStatus) (decimal.Decimal, error)
}

// EntryWriter defines write operations for ledger entries
type EntryWriter interface {
	// SaveEntry inserts a new entry and stamps its audit timestamps.
	SaveEntry(ctx context.Context, entry *domain.LedgerEntry) error

	// UpdateEntryStatus persists a transition out of pending.
	// Entries that are no longer pending in storage yield apperrors.ErrConflict.
	UpdateEntryStatus(ctx context.Context, entry *domain.LedgerEntry) error
}

// EntryRepositoryFacade combines the entry operations usable outside a transaction.
type EntryRepositoryFacade interface {
	EntryReader
	EntrySummer
}
