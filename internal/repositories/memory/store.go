// Package memory is a process-local implementation of the repository ports.
//
// It honours the same contract as the Postgres repositories: per-account
// exclusive locks held until the transaction ends, staged writes that are
// discarded on error, and newest-first entry ordering. Data is lost on exit.
package memory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/wallet_ledger/internal/utils/pagination"
	"github.com/shopspring/decimal"
)

var errLockTimeout = errors.New("lock timeout exceeded")

// Store holds accounts and entries behind a single RWMutex.
// Account locks are separate channels so a transaction can hold one
// without blocking readers.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]domain.Account
	addresses map[string]string   // public address -> account id
	entries   map[string]domain.LedgerEntry
	byAccount map[string][]string // account id -> entry ids
	locks     map[string]chan struct{}
	lastStamp time.Time

	txTimeout   time.Duration
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithTxTimeout bounds every RunInTx scope.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) { s.txTimeout = d }
}

// WithLockTimeout bounds how long LockAccountForUpdate waits.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		accounts:  make(map[string]domain.Account),
		addresses: make(map[string]string),
		entries:   make(map[string]domain.LedgerEntry),
		byAccount: make(map[string][]string),
		locks:     make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ portsrepo.AccountRepositoryFacade = (*Store)(nil)
	_ portsrepo.EntryRepositoryFacade   = (*Store)(nil)
	_ portsrepo.TransactionManager      = (*Store)(nil)
)

// NewRepositoryProvider wires a single store behind every repository port.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo: store,
		EntryRepo:   store,
		TxManager:   store,
	}
}

// stamp returns a strictly increasing microsecond timestamp. Must hold s.mu.
func (s *Store) stamp() time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = now
	return now
}

func cloneEntry(e domain.LedgerEntry) domain.LedgerEntry {
	if e.SettlementRef != nil {
		ref := *e.SettlementRef
		e.SettlementRef = &ref
	}
	return e
}

// newestFirst orders by created_at DESC, id DESC.
func newestFirst(entries []domain.LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}

// --- accounts ---

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &acc, nil
}

func (s *Store) FindAccountByPublicAddress(ctx context.Context, publicAddress string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.addresses[publicAddress]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	acc := s.accounts[id]
	return &acc, nil
}

// ListAccounts orders by created_at, oldest first.
func (s *Store) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	all := make([]domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		all = append(all, acc)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []domain.Account{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *Store) SaveAccount(ctx context.Context, account *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.addresses[account.PublicAddress]; exists {
		return fmt.Errorf("%w: public address %s already registered", apperrors.ErrDuplicate, account.PublicAddress)
	}
	if _, exists := s.accounts[account.ID]; exists {
		return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.ID)
	}
	now := s.stamp()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.accounts[account.ID] = *account
	s.addresses[account.PublicAddress] = account.ID
	return nil
}

// DeleteAccount waits for the account lock so it cannot race a ledger operation.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	if _, err := s.FindAccountByID(ctx, accountID); err != nil {
		return err
	}
	if err := s.acquire(ctx, accountID); err != nil {
		return err
	}
	defer s.release(accountID)

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[accountID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if len(s.byAccount[accountID]) > 0 {
		return fmt.Errorf("%w: account %s has ledger entries", apperrors.ErrConflict, accountID)
	}
	delete(s.accounts, accountID)
	delete(s.addresses, acc.PublicAddress)
	return nil
}

// --- entries ---

func (s *Store) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	e = cloneEntry(e)
	return &e, nil
}

func (s *Store) ListEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	ids := s.byAccount[accountID]
	out := make([]domain.LedgerEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneEntry(s.entries[id]))
	}
	s.mu.RUnlock()

	newestFirst(out)
	return out, nil
}

func (s *Store) ListEntries(ctx context.Context, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.ParseCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewFieldError(apperrors.ErrValidation, "nextToken", "invalid nextToken")
		}
		cursor = &c
	}

	s.mu.RLock()
	all := make([]domain.LedgerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, cloneEntry(e))
	}
	s.mu.RUnlock()
	newestFirst(all)

	page := make([]domain.LedgerEntry, 0, limit)
	for _, e := range all {
		if cursor != nil && !cursor.Before(e.CreatedAt, e.ID) {
			continue
		}
		page = append(page, e)
		if len(page) == limit+1 {
			break
		}
	}

	var next *string
	if len(page) > limit {
		page = page[:limit]
		last := page[len(page)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.ID)
		next = &token
	}
	return page, next, nil
}

// SumEntryAmounts reads committed data only.
func (s *Store) SumEntryAmounts(ctx context.Context, accountID string, entryType domain.EntryType, status domain.EntryStatus) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SumAmounts(s.accountEntriesLocked(accountID), entryType, status), nil
}

// accountEntriesLocked must be called with s.mu held.
func (s *Store) accountEntriesLocked(accountID string) []domain.LedgerEntry {
	ids := s.byAccount[accountID]
	out := make([]domain.LedgerEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.entries[id])
	}
	return out
}

// --- account locks ---

func (s *Store) lockFor(accountID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[accountID]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[accountID] = l
	}
	return l
}

func (s *Store) acquire(ctx context.Context, accountID string) error {
	l := s.lockFor(accountID)

	var timeout <-chan time.Time
	if s.lockTimeout > 0 {
		t := time.NewTimer(s.lockTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case l <- struct{}{}:
		return nil
	case <-ctx.Done():
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to acquire account lock", ctx.Err())
	case <-timeout:
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to acquire account lock", errLockTimeout)
	}
}

func (s *Store) release(accountID string) {
	s.mu.RLock()
	l := s.locks[accountID]
	s.mu.RUnlock()
	<-l
}
