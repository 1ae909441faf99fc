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
	"github.com/SscSPs/wallet_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const entryColumns = `id, account_id, amount, type, status, settlement_ref, created_at, updated_at`

type PgxEntryRepository struct {
	BaseRepository
}

// newPgxEntryRepository creates a new repository for ledger entries.
func newPgxEntryRepository(base BaseRepository) *PgxEntryRepository {
	return &PgxEntryRepository{BaseRepository: base}
}

// Ensure PgxEntryRepository implements portsrepo.EntryRepositoryFacade
var _ portsrepo.EntryRepositoryFacade = (*PgxEntryRepository)(nil)

func collectEntries(rows pgx.Rows) ([]domain.LedgerEntry, error) {
	modelEntries, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.LedgerEntry])
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainLedgerEntrySlice(modelEntries), nil
}

// FindEntryByID retrieves a single ledger entry.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1;`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry %s: %w", entryID, err)
	}
	modelEntry, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.LedgerEntry])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan entry %s: %w", entryID, err)
	}
	entry := mapping.ToDomainLedgerEntry(modelEntry)
	return &entry, nil
}

// ListEntriesByAccountID returns the account's full history, newest first.
func (r *PgxEntryRepository) ListEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for account %s: %w", accountID, err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan entries for account %s: %w", accountID, err)
	}
	return entries, nil
}

// ListEntries returns a keyset-paginated page across all accounts.
func (r *PgxEntryRepository) ListEntries(ctx context.Context, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	args := []any{limit + 1}
	where := ""
	if nextToken != nil && *nextToken != "" {
		cursor, decodeErr := pagination.ParseCursor(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewFieldError(apperrors.ErrValidation, "nextToken", "invalid nextToken")
		}
		where = `WHERE (created_at, id) < ($2, $3)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $1;
	`
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan entries: %w", err)
	}

	// One extra row was fetched to learn whether another page exists.
	var nextTokenVal *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.ID)
		nextTokenVal = &token
	}
	return entries, nextTokenVal, nil
}

func sumEntryAmounts(ctx context.Context, q querier, accountID string, entryType domain.EntryType, status domain.EntryStatus) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE account_id = $1 AND type = $2 AND status = $3;
	`
	var total decimal.Decimal
	if err := q.QueryRow(ctx, query, accountID, string(entryType), string(status)).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// SumEntryAmounts aggregates committed entries outside any transaction.
func (r *PgxEntryRepository) SumEntryAmounts(ctx context.Context, accountID string, entryType domain.EntryType, status domain.EntryStatus) (decimal.Decimal, error) {
	total, err := sumEntryAmounts(ctx, r.Pool, accountID, entryType, status)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum %s %s entries for account %s: %w", status, entryType, accountID, err)
	}
	return total, nil
}

// SumEntryAmounts aggregates within the transaction, seeing its own writes.
func (t *pgxLedgerTx) SumEntryAmounts(ctx context.Context, accountID string, entryType domain.EntryType, status domain.EntryStatus) (decimal.Decimal, error) {
	total, err := sumEntryAmounts(ctx, t.tx, accountID, entryType, status)
	if err != nil {
		return decimal.Zero, translateError(err, fmt.Sprintf("failed to sum entries for account %s", accountID))
	}
	return total, nil
}

// SaveEntry inserts a new entry; timestamps come from the database.
func (t *pgxLedgerTx) SaveEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	m := mapping.ToModelLedgerEntry(*entry)
	query := `
		INSERT INTO ledger_entries (id, account_id, amount, type, status, settlement_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at;
	`
	err := t.tx.QueryRow(ctx, query, m.ID, m.AccountID, m.Amount, string(m.Type), string(m.Status), m.SettlementRef).
		Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		switch pgErrorCode(err) {
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: account %s does not exist", apperrors.ErrNotFound, m.AccountID)
		case pgUniqueViolation:
			return fmt.Errorf("%w: entry with ID %s already exists", apperrors.ErrDuplicate, m.ID)
		}
		return translateError(err, fmt.Sprintf("failed to save entry %s", m.ID))
	}
	return nil
}

// UpdateEntryStatus persists a transition out of pending. The status guard
// in the WHERE clause keeps terminal rows immutable.
func (t *pgxLedgerTx) UpdateEntryStatus(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		UPDATE ledger_entries
		SET status = $2, settlement_ref = $3, updated_at = clock_timestamp()
		WHERE id = $1 AND status = 'pending'
		RETURNING updated_at;
	`
	err := t.tx.QueryRow(ctx, query, entry.ID, string(entry.Status), entry.SettlementRef).Scan(&entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: entry %s is not pending", apperrors.ErrConflict, entry.ID)
		}
		return translateError(err, fmt.Sprintf("failed to update entry %s", entry.ID))
	}
	return nil
}
