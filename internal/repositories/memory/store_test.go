package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/wallet_ledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	account *domain.Account
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore(memory.WithLockTimeout(50 * time.Millisecond))
	s.account = &domain.Account{ID: "acc-1", PublicAddress: "0xabc", EncryptedSecret: "sealed"}
	s.Require().NoError(s.store.SaveAccount(s.ctx, s.account))
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) addEntry(id string, entryType domain.EntryType, amount string, complete bool) {
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		if _, err := tx.LockAccountForUpdate(ctx, s.account.ID); err != nil {
			return err
		}
		e := domain.NewLedgerEntry(id, s.account.ID, decimal.RequireFromString(amount), entryType)
		if err := tx.SaveEntry(ctx, e); err != nil {
			return err
		}
		if complete {
			e.Complete("ref-" + id)
			return tx.UpdateEntryStatus(ctx, e)
		}
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestSaveAccount_SetsTimestamps() {
	s.False(s.account.CreatedAt.IsZero())
	s.Equal(s.account.CreatedAt, s.account.UpdatedAt)

	found, err := s.store.FindAccountByPublicAddress(s.ctx, "0xabc")
	s.Require().NoError(err)
	s.Equal("acc-1", found.ID)
	s.Equal("sealed", found.EncryptedSecret)
}

func (s *StoreTestSuite) TestSaveAccount_DuplicateAddress() {
	err := s.store.SaveAccount(s.ctx, &domain.Account{ID: "acc-2", PublicAddress: "0xabc"})
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *StoreTestSuite) TestFindAccount_NotFound() {
	_, err := s.store.FindAccountByID(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
	_, err = s.store.FindAccountByPublicAddress(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestRunInTx_CommitsOnSuccess() {
	s.addEntry("e1", domain.EntryTypeDeposit, "100.5", true)

	e, err := s.store.FindEntryByID(s.ctx, "e1")
	s.Require().NoError(err)
	s.Equal(domain.EntryStatusCompleted, e.Status)
	s.Require().NotNil(e.SettlementRef)
	s.Equal("ref-e1", *e.SettlementRef)
	s.True(e.UpdatedAt.After(e.CreatedAt))

	sum, err := s.store.SumEntryAmounts(s.ctx, s.account.ID, domain.EntryTypeDeposit, domain.EntryStatusCompleted)
	s.Require().NoError(err)
	s.True(sum.Equal(decimal.RequireFromString("100.5")))
}

func (s *StoreTestSuite) TestRunInTx_DiscardsOnError() {
	boom := errors.New("boom")
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.LockAccountForUpdate(ctx, s.account.ID)
		s.Require().NoError(err)
		s.Require().NoError(tx.SaveEntry(ctx, domain.NewLedgerEntry("e1", s.account.ID, decimal.NewFromInt(5), domain.EntryTypeDeposit)))
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.FindEntryByID(s.ctx, "e1")
	s.ErrorIs(err, apperrors.ErrNotFound)

	// the lock was released
	s.addEntry("e2", domain.EntryTypeDeposit, "1", true)
}

func (s *StoreTestSuite) TestRunInTx_SeesOwnWrites() {
	s.addEntry("e1", domain.EntryTypeDeposit, "10", true)

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		e := domain.NewLedgerEntry("e2", s.account.ID, decimal.NewFromInt(5), domain.EntryTypeDeposit)
		s.Require().NoError(tx.SaveEntry(ctx, e))
		e.Complete("")
		s.Require().NoError(tx.UpdateEntryStatus(ctx, e))

		inside, err := tx.SumEntryAmounts(ctx, s.account.ID, domain.EntryTypeDeposit, domain.EntryStatusCompleted)
		s.Require().NoError(err)
		s.True(inside.Equal(decimal.NewFromInt(15)))

		outside, err := s.store.SumEntryAmounts(ctx, s.account.ID, domain.EntryTypeDeposit, domain.EntryStatusCompleted)
		s.Require().NoError(err)
		s.True(outside.Equal(decimal.NewFromInt(10)))
		return nil
	})
	s.Require().NoError(err)
}

func (s *StoreTestSuite) TestUpdateEntryStatus_RejectsTerminal() {
	s.addEntry("e1", domain.EntryTypeDeposit, "10", true)

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		e, err := s.store.FindEntryByID(ctx, "e1")
		s.Require().NoError(err)
		e.Status = domain.EntryStatusFailed
		return tx.UpdateEntryStatus(ctx, e)
	})
	s.ErrorIs(err, apperrors.ErrConflict)

	e, err := s.store.FindEntryByID(s.ctx, "e1")
	s.Require().NoError(err)
	s.Equal(domain.EntryStatusCompleted, e.Status)
}

func (s *StoreTestSuite) TestSaveEntry_UnknownAccount() {
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		return tx.SaveEntry(ctx, domain.NewLedgerEntry("e1", "missing", decimal.NewFromInt(1), domain.EntryTypeDeposit))
	})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *StoreTestSuite) TestLockAccountForUpdate_TimesOut() {
	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = s.store.RunInTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			_, err := tx.LockAccountForUpdate(ctx, s.account.ID)
			close(held)
			<-done
			return err
		})
	}()
	<-held
	defer close(done)

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		_, err := tx.LockAccountForUpdate(ctx, s.account.ID)
		return err
	})
	s.ErrorIs(err, apperrors.ErrInternal)
}

func (s *StoreTestSuite) TestRunInTx_TimeoutAbortsScope() {
	store := memory.NewStore(memory.WithTxTimeout(20 * time.Millisecond))
	acc := &domain.Account{ID: "acc-t", PublicAddress: "0xt"}
	s.Require().NoError(store.SaveAccount(s.ctx, acc))

	err := store.RunInTx(s.ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		s.Require().NoError(tx.SaveEntry(ctx, domain.NewLedgerEntry("e1", acc.ID, decimal.NewFromInt(1), domain.EntryTypeDeposit)))
		<-ctx.Done()
		return nil
	})
	s.ErrorIs(err, apperrors.ErrInternal)

	entries, err := store.ListEntriesByAccountID(s.ctx, acc.ID)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *StoreTestSuite) TestDeleteAccount() {
	s.addEntry("e1", domain.EntryTypeDeposit, "1", false)
	s.ErrorIs(s.store.DeleteAccount(s.ctx, s.account.ID), apperrors.ErrConflict)

	empty := &domain.Account{ID: "acc-2", PublicAddress: "0xdef"}
	s.Require().NoError(s.store.SaveAccount(s.ctx, empty))
	s.Require().NoError(s.store.DeleteAccount(s.ctx, empty.ID))

	_, err := s.store.FindAccountByID(s.ctx, empty.ID)
	s.ErrorIs(err, apperrors.ErrNotFound)
	s.ErrorIs(s.store.DeleteAccount(s.ctx, empty.ID), apperrors.ErrNotFound)

	// the address is free again
	s.NoError(s.store.SaveAccount(s.ctx, &domain.Account{ID: "acc-3", PublicAddress: "0xdef"}))
}

func (s *StoreTestSuite) TestListEntriesByAccountID_NewestFirst() {
	for i := 1; i <= 3; i++ {
		s.addEntry(fmt.Sprintf("e%d", i), domain.EntryTypeDeposit, "1", true)
	}

	entries, err := s.store.ListEntriesByAccountID(s.ctx, s.account.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal([]string{"e3", "e2", "e1"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})

	none, err := s.store.ListEntriesByAccountID(s.ctx, "other")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *StoreTestSuite) TestListEntries_Paginates() {
	for i := 1; i <= 5; i++ {
		s.addEntry(fmt.Sprintf("e%d", i), domain.EntryTypeDeposit, "1", true)
	}

	page1, next, err := s.store.ListEntries(s.ctx, 2, nil)
	s.Require().NoError(err)
	s.Require().NotNil(next)
	s.Equal("e5", page1[0].ID)
	s.Equal("e4", page1[1].ID)

	page2, next, err := s.store.ListEntries(s.ctx, 2, next)
	s.Require().NoError(err)
	s.Require().NotNil(next)
	s.Equal("e3", page2[0].ID)
	s.Equal("e2", page2[1].ID)

	page3, next, err := s.store.ListEntries(s.ctx, 2, next)
	s.Require().NoError(err)
	s.Nil(next)
	s.Require().Len(page3, 1)
	s.Equal("e1", page3[0].ID)
}

func (s *StoreTestSuite) TestListEntries_BadToken() {
	bad := "%%%"
	_, _, err := s.store.ListEntries(s.ctx, 2, &bad)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func TestListAccounts_Paginates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveAccount(ctx, &domain.Account{ID: fmt.Sprintf("acc-%d", i), PublicAddress: fmt.Sprintf("0x%d", i)}))
	}

	first, err := store.ListAccounts(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, "acc-0", first[0].ID)

	rest, err := store.ListAccounts(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Equal(t, "acc-2", rest[0].ID)

	beyond, err := store.ListAccounts(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}
