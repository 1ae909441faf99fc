package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/wallet_ledger/internal/core/ports/services"
	"github.com/SscSPs/wallet_ledger/internal/dto"
	"github.com/SscSPs/wallet_ledger/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo    portsrepo.AccountRepositoryFacade
	entryRepo      portsrepo.EntrySummer
	vault          portssvc.CredentialVault
	generateSecret func() (string, error)
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithSecretGenerator replaces the random account secret source.
func WithSecretGenerator(gen func() (string, error)) AccountServiceOption {
	return func(s *accountService) {
		s.generateSecret = gen
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, entryRepo portsrepo.EntrySummer, vault portssvc.CredentialVault, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		vault:       vault,
		generateSecret: func() (string, error) {
			return utils.GenerateAlphanumericSecret(utils.AccountSecretLength)
		},
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, string, error) {
	address := strings.TrimSpace(req.PublicAddress)
	if address == "" {
		return nil, "", apperrors.NewFieldError(apperrors.ErrValidation, "publicAddress", "publicAddress is required")
	}
	if len(address) > domain.MaxPublicAddressLength {
		return nil, "", apperrors.NewFieldError(apperrors.ErrValidation, "publicAddress",
			fmt.Sprintf("publicAddress must be at most %d characters", domain.MaxPublicAddressLength))
	}

	secret, err := s.generateSecret()
	if err != nil {
		s.LogError(ctx, err, "Failed to generate account secret")
		return nil, "", internalError("failed to generate account secret", err)
	}
	sealed, err := s.vault.Encrypt(secret)
	if err != nil {
		s.LogError(ctx, err, "Failed to encrypt account secret")
		return nil, "", internalError("failed to encrypt account secret", err)
	}

	account := domain.Account{
		ID:              uuid.NewString(),
		PublicAddress:   address,
		EncryptedSecret: sealed,
	}

	if err := s.accountRepo.SaveAccount(ctx, &account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogDebug(ctx, "Public address already registered", slog.String("public_address", address))
			return nil, "", apperrors.NewFieldError(apperrors.ErrDuplicate, "publicAddress", "publicAddress is already registered")
		}
		s.LogError(ctx, err, "Failed to save account", slog.String("account_id", account.ID))
		return nil, "", internalError("failed to save account", err)
	}

	s.LogInfo(ctx, "Account created successfully", slog.String("account_id", account.ID))
	return &account, secret, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	if err := checkID(accountID, "accountID", "account"); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, notFound("accountID", "account")
		}
		s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		return nil, internalError("failed to load account", err)
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts",
			slog.Int("limit", limit),
			slog.Int("offset", offset))
		return nil, internalError("failed to list accounts", err)
	}

	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// GetAccountBalance re-derives the balance from committed COMPLETED entries on every call.
func (s *accountService) GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if _, err := s.GetAccountByID(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	balance, err := deriveBalance(ctx, s.entryRepo, accountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to derive balance", slog.String("account_id", accountID))
		return decimal.Zero, internalError("failed to derive balance", err)
	}
	return balance.Net(), nil
}

func (s *accountService) DeleteAccount(ctx context.Context, accountID string) error {
	if err := checkID(accountID, "accountID", "account"); err != nil {
		return err
	}

	err := s.accountRepo.DeleteAccount(ctx, accountID)
	switch {
	case err == nil:
		s.LogInfo(ctx, "Account deleted", slog.String("account_id", accountID))
		return nil
	case errors.Is(err, apperrors.ErrNotFound):
		return notFound("accountID", "account")
	case errors.Is(err, apperrors.ErrConflict):
		return apperrors.NewFieldError(apperrors.ErrConflict, "accountID", "account has ledger entries and cannot be deleted")
	}
	s.LogError(ctx, err, "Failed to delete account", slog.String("account_id", accountID))
	return internalError("failed to delete account", err)
}
