package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/wallet_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/wallet_ledger/internal/models"
	"github.com/SscSPs/wallet_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, public_address, encrypted_secret, created_at, updated_at`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(base BaseRepository) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: base}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func findOneAccount(ctx context.Context, q querier, query string, args ...any) (*domain.Account, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	modelAcc, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	domainAcc := mapping.ToDomainAccount(modelAcc)
	return &domainAcc, nil
}

// SaveAccount inserts a new account; timestamps come from the database.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	modelAcc := mapping.ToModelAccount(*account)

	query := `
		INSERT INTO accounts (id, public_address, encrypted_secret)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at;
	`
	err := r.Pool.QueryRow(ctx, query, modelAcc.ID, modelAcc.PublicAddress, modelAcc.EncryptedSecret).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return fmt.Errorf("%w: public address %s already registered", apperrors.ErrDuplicate, modelAcc.PublicAddress)
		}
		return fmt.Errorf("failed to save account %s: %w", modelAcc.ID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1;`
	acc, err := findOneAccount(ctx, r.Pool, query, accountID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return acc, err
}

// FindAccountByPublicAddress retrieves an account by its public address.
func (r *PgxAccountRepository) FindAccountByPublicAddress(ctx context.Context, publicAddress string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE public_address = $1;`
	acc, err := findOneAccount(ctx, r.Pool, query, publicAddress)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to find account by address: %w", err)
	}
	return acc, err
}

// ListAccounts retrieves a page of accounts, oldest first.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2;
	`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	modelAccs, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, fmt.Errorf("failed to scan account rows: %w", err)
	}
	return mapping.ToDomainAccountSlice(modelAccs), nil
}

// DeleteAccount removes an account. The foreign key on ledger_entries is
// ON DELETE RESTRICT, so accounts with history cannot be removed.
func (r *PgxAccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1;`, accountID)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("%w: account %s has ledger entries", apperrors.ErrConflict, accountID)
		}
		return translateError(err, fmt.Sprintf("failed to delete account %s", accountID))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LockAccountForUpdate takes the row lock on the account for the rest of the transaction.
func (t *pgxLedgerTx) LockAccountForUpdate(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE;`
	acc, err := findOneAccount(ctx, t.tx, query, accountID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, translateError(err, fmt.Sprintf("failed to lock account %s", accountID))
	}
	return acc, err
}
