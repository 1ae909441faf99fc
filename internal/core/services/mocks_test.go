package services_test

import (
	"context"

	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/wallet_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByPublicAddress(ctx context.Context, publicAddress string) (*domain.Account, error) {
	args := m.Called(ctx, publicAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

// MockEntryRepository is a mock type for the EntryRepositoryFacade interface
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) ListEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

func (m *MockEntryRepository) ListEntries(ctx context.Context, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, limit, nextToken)
	var entries []domain.LedgerEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.LedgerEntry)
	}
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	return entries, next, args.Error(2)
}

func (m *MockEntryRepository) SumEntryAmounts(ctx context.Context, accountID string, entryType domain.EntryType, status domain.EntryStatus) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, entryType, status)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockLedgerTx is a mock type for the LedgerTx interface
type MockLedgerTx struct {
	mock.Mock
}

func (m *MockLedgerTx) LockAccountForUpdate(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockLedgerTx) SumEntryAmounts(ctx context.Context, accountID string, entryType domain.EntryType, status domain.EntryStatus) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, entryType, status)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedgerTx) SaveEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerTx) UpdateEntryStatus(ctx context.Context, entry *domain.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockTxManager runs the callback against Tx. The configured return value of
// RunInTx is used as the commit result once the callback succeeds.
type MockTxManager struct {
	mock.Mock
	Tx *MockLedgerTx
}

func (m *MockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	commitErr := m.Called(ctx).Error(0)
	if err := fn(ctx, m.Tx); err != nil {
		return err
	}
	return commitErr
}

// MockVault is a mock type for the CredentialVault interface
type MockVault struct {
	mock.Mock
}

func (m *MockVault) Encrypt(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockVault) Decrypt(ciphertext string) (string, error) {
	args := m.Called(ciphertext)
	return args.String(0), args.Error(1)
}

// MockSettler is a mock type for the SettlementSvc interface
type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) Settle(ctx context.Context, req portssvc.SettlementRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

var (
	_ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)
	_ portsrepo.EntryRepositoryFacade   = (*MockEntryRepository)(nil)
	_ portsrepo.LedgerTx                = (*MockLedgerTx)(nil)
	_ portsrepo.TransactionManager      = (*MockTxManager)(nil)
	_ portssvc.CredentialVault          = (*MockVault)(nil)
	_ portssvc.SettlementSvc            = (*MockSettler)(nil)
)
