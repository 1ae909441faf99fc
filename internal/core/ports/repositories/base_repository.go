package repositories

import (
	"context"
)

// LedgerTx is the view of storage handed to a RunInTx callback.
// Every call made through it belongs to the same atomic scope.
type LedgerTx interface {
	AccountLocker
	EntrySummer
	EntryWriter
}

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	// RunInTx executes fn inside one transaction. The transaction commits only
	// if fn returns nil; otherwise every write made through tx is discarded.
	// The context passed to fn carries the transaction deadline.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error
}
