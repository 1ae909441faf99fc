package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/wallet_ledger/internal/middleware"
	"github.com/google/uuid"
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// notFound builds the client-facing error for a missing resource referenced by field.
func notFound(field, what string) error {
	return apperrors.NewFieldError(apperrors.ErrNotFound, field, what+" not found")
}

// checkID rejects identifiers that can never match a stored row. Storage IDs
// are UUIDs, so anything else is reported the same way as a missing row.
func checkID(id, field, what string) error {
	if uuid.Validate(id) != nil {
		return notFound(field, what)
	}
	return nil
}

// internalError wraps err as a 500 unless it already is one.
func internalError(msg string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code >= http.StatusInternalServerError {
		return err
	}
	return apperrors.NewAppError(http.StatusInternalServerError, msg, err)
}

// deriveBalance totals COMPLETED entries of the account. Called with a LedgerTx
// it sees the transaction's own writes; called with a repository it sees committed data.
func deriveBalance(ctx context.Context, summer portsrepo.EntrySummer, accountID string) (domain.Balance, error) {
	deposits, err := summer.SumEntryAmounts(ctx, accountID, domain.EntryTypeDeposit, domain.EntryStatusCompleted)
	if err != nil {
		return domain.Balance{}, err
	}
	withdrawals, err := summer.SumEntryAmounts(ctx, accountID, domain.EntryTypeWithdrawal, domain.EntryStatusCompleted)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.Balance{Deposits: deposits, Withdrawals: withdrawals}, nil
}
