package memory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// memTx stages writes until commit. Reads through it see its own writes.
type memTx struct {
	store   *Store
	held    map[string]bool
	created []domain.LedgerEntry
	updated map[string]domain.LedgerEntry
}

var _ portsrepo.LedgerTx = (*memTx)(nil)

// RunInTx runs fn and applies its staged writes only if fn succeeds and the
// context is still live. Account locks taken by fn are released either way.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx := &memTx{
		store:   s,
		held:    make(map[string]bool),
		updated: make(map[string]domain.LedgerEntry),
	}
	defer tx.releaseAll()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to commit transaction", err)
	}
	return tx.commit()
}

func (tx *memTx) releaseAll() {
	for id := range tx.held {
		tx.store.release(id)
	}
	tx.held = nil
}

func (tx *memTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range tx.created {
		if final, ok := tx.updated[e.ID]; ok {
			e = final
		}
		s.entries[e.ID] = cloneEntry(e)
		s.byAccount[e.AccountID] = append(s.byAccount[e.AccountID], e.ID)
	}
	for id, e := range tx.updated {
		if _, exists := s.entries[id]; exists && !tx.isCreated(id) {
			s.entries[id] = cloneEntry(e)
		}
	}
	return nil
}

func (tx *memTx) isCreated(id string) bool {
	for _, e := range tx.created {
		if e.ID == id {
			return true
		}
	}
	return false
}

// LockAccountForUpdate is re-entrant within one transaction.
func (tx *memTx) LockAccountForUpdate(ctx context.Context, accountID string) (*domain.Account, error) {
	if !tx.held[accountID] {
		if _, err := tx.store.FindAccountByID(ctx, accountID); err != nil {
			return nil, err
		}
		if err := tx.store.acquire(ctx, accountID); err != nil {
			return nil, err
		}
		tx.held[accountID] = true
	}
	// Re-read under the lock; the account may have been deleted while waiting.
	return tx.store.FindAccountByID(ctx, accountID)
}

func (tx *memTx) SumEntryAmounts(ctx context.Context, accountID string, entryType domain.EntryType, status domain.EntryStatus) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	s := tx.store
	s.mu.RLock()
	committed := s.accountEntriesLocked(accountID)
	s.mu.RUnlock()

	view := make([]domain.LedgerEntry, 0, len(committed)+len(tx.created))
	for _, e := range committed {
		view = append(view, tx.current(e))
	}
	for _, e := range tx.created {
		if e.AccountID == accountID {
			view = append(view, tx.current(e))
		}
	}
	return domain.SumAmounts(view, entryType, status), nil
}

// current returns the staged version of e if this transaction changed it.
func (tx *memTx) current(e domain.LedgerEntry) domain.LedgerEntry {
	if staged, ok := tx.updated[e.ID]; ok {
		return staged
	}
	return e
}

func (tx *memTx) SaveEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[entry.AccountID]; !ok {
		return fmt.Errorf("%w: account %s does not exist", apperrors.ErrNotFound, entry.AccountID)
	}
	if _, exists := s.entries[entry.ID]; exists || tx.isCreated(entry.ID) {
		return fmt.Errorf("%w: entry with ID %s already exists", apperrors.ErrDuplicate, entry.ID)
	}
	now := s.stamp()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	tx.created = append(tx.created, cloneEntry(*entry))
	return nil
}

func (tx *memTx) UpdateEntryStatus(ctx context.Context, entry *domain.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var current domain.LedgerEntry
	if staged, ok := tx.updated[entry.ID]; ok {
		current = staged
	} else if committed, ok := s.entries[entry.ID]; ok {
		current = committed
	} else {
		found := false
		for _, e := range tx.created {
			if e.ID == entry.ID {
				current, found = e, true
				break
			}
		}
		if !found {
			return apperrors.ErrNotFound
		}
	}
	if current.Status != domain.EntryStatusPending {
		return fmt.Errorf("%w: entry %s is already %s", apperrors.ErrConflict, entry.ID, current.Status)
	}

	entry.UpdatedAt = s.stamp()
	current.Status = entry.Status
	current.SettlementRef = entry.SettlementRef
	current.UpdatedAt = entry.UpdatedAt
	tx.updated[entry.ID] = cloneEntry(current)
	return nil
}
