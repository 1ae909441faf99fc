package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/wallet_ledger/internal/core/ports/services"
	"github.com/SscSPs/wallet_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ledgerService records deposits and withdrawals and serves entry history.
type ledgerService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	entryRepo   portsrepo.EntryReader
	txManager   portsrepo.TransactionManager
	vault       portssvc.CredentialVault
	settler     portssvc.SettlementSvc
	newID       func() string
}

// LedgerServiceOption is a functional option for configuring the ledger service
type LedgerServiceOption func(*ledgerService)

// WithEntryIDGenerator replaces uuid.NewString as the source of entry IDs.
func WithEntryIDGenerator(gen func() string) LedgerServiceOption {
	return func(s *ledgerService) {
		s.newID = gen
	}
}

// NewLedgerService creates a new ledger service on top of the given repositories.
func NewLedgerService(repos portsrepo.RepositoryProvider, vault portssvc.CredentialVault, settler portssvc.SettlementSvc, options ...LedgerServiceOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		accountRepo: repos.AccountRepo,
		entryRepo:   repos.EntryRepo,
		txManager:   repos.TxManager,
		vault:       vault,
		settler:     settler,
		newID:       uuid.NewString,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

func (s *ledgerService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.LedgerEntry, error) {
	return s.record(ctx, accountID, amount, domain.EntryTypeDeposit)
}

func (s *ledgerService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.LedgerEntry, error) {
	return s.record(ctx, accountID, amount, domain.EntryTypeWithdrawal)
}

// record runs one balance-changing operation. Validation and the account lookup
// happen before anything is written. Inside the transaction the account row is
// locked, funds are re-checked for withdrawals, and the entry is inserted as
// pending and then moved to its terminal status before commit. A failed
// settlement still commits the FAILED entry and is reported as an internal error.
func (s *ledgerService) record(ctx context.Context, accountID string, amount decimal.Decimal, entryType domain.EntryType) (*domain.LedgerEntry, error) {
	if err := checkID(accountID, "accountID", "account"); err != nil {
		return nil, err
	}
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, notFound("accountID", "account")
		}
		s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		return nil, internalError("failed to load account", err)
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	entry := domain.NewLedgerEntry(s.newID(), accountID, amount, entryType)
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	var settleErr error
	err := s.txManager.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		account, err := tx.LockAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		if entryType == domain.EntryTypeWithdrawal {
			balance, err := deriveBalance(ctx, tx, accountID)
			if err != nil {
				return err
			}
			if !balance.Covers(amount) {
				s.LogDebug(ctx, "Withdrawal rejected for insufficient funds",
					slog.String("account_id", accountID),
					slog.String("balance", domain.FormatAmount(balance.Net())),
					slog.String("amount", domain.FormatAmount(amount)))
				return apperrors.NewFieldError(apperrors.ErrValidation, "amount", "insufficient funds")
			}
		}

		if err := tx.SaveEntry(ctx, entry); err != nil {
			return err
		}

		ref, err := s.settle(ctx, *account, *entry)
		if err != nil {
			settleErr = err
			entry.Rollback()
		} else {
			entry.Complete(ref)
		}
		return tx.UpdateEntryStatus(ctx, entry)
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			return nil, err
		case errors.Is(err, apperrors.ErrNotFound):
			// deleted between lookup and lock
			return nil, notFound("accountID", "account")
		}
		s.LogError(ctx, err, "Ledger transaction aborted",
			slog.String("account_id", accountID),
			slog.String("entry_id", entry.ID),
			slog.String("type", string(entryType)))
		return nil, internalError("failed to record "+string(entryType), err)
	}

	if settleErr != nil {
		s.LogError(ctx, settleErr, "Settlement failed, entry marked failed",
			slog.String("account_id", accountID),
			slog.String("entry_id", entry.ID),
			slog.String("type", string(entryType)))
		return entry, apperrors.NewAppError(http.StatusInternalServerError, "settlement failed", settleErr)
	}

	s.LogInfo(ctx, "Ledger entry recorded",
		slog.String("account_id", accountID),
		slog.String("entry_id", entry.ID),
		slog.String("type", string(entryType)),
		slog.String("amount", domain.FormatAmount(amount)))
	return entry, nil
}

// settle hands the entry to the settlement backend. Withdrawals are signed
// with the account secret, so a vault failure is a settlement failure.
func (s *ledgerService) settle(ctx context.Context, account domain.Account, entry domain.LedgerEntry) (string, error) {
	req := portssvc.SettlementRequest{Entry: entry, Account: account}
	if entry.Type == domain.EntryTypeWithdrawal {
		secret, err := s.vault.Decrypt(account.EncryptedSecret)
		if err != nil {
			return "", err
		}
		req.SigningSecret = secret
	}
	return s.settler.Settle(ctx, req)
}

func (s *ledgerService) ListTransactionsForAccount(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	if err := checkID(accountID, "accountID", "account"); err != nil {
		return nil, err
	}
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, notFound("accountID", "account")
		}
		s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		return nil, internalError("failed to load account", err)
	}

	entries, err := s.entryRepo.ListEntriesByAccountID(ctx, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list entries", slog.String("account_id", accountID))
		return nil, internalError("failed to list transactions", err)
	}
	if entries == nil {
		return []domain.LedgerEntry{}, nil
	}
	return entries, nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	if err := checkID(entryID, "transactionID", "transaction"); err != nil {
		return nil, err
	}
	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, notFound("transactionID", "transaction")
		}
		s.LogError(ctx, err, "Failed to find entry by ID", slog.String("entry_id", entryID))
		return nil, internalError("failed to load transaction", err)
	}
	return entry, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	limit := clampLimit(params.Limit)

	entries, nextToken, err := s.entryRepo.ListEntries(ctx, limit, params.NextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			return nil, err
		}
		s.LogError(ctx, err, "Failed to list entries", slog.Int("limit", limit))
		return nil, internalError("failed to list transactions", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToListTransactionResponse(entries),
		NextToken:    nextToken,
	}, nil
}
