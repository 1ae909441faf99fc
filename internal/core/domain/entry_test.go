package domain_test

import (
	"errors"
	"testing"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerEntry_Validate(t *testing.T) {
	tests := []struct {
		name       string
		entry      *domain.LedgerEntry
		wantErr    bool
		wantFields []string
	}{
		{
			name:  "valid deposit",
			entry: domain.NewLedgerEntry("e1", "acc_1", decimal.RequireFromString("100.50"), domain.EntryTypeDeposit),
		},
		{
			name:  "valid withdrawal with eight decimals",
			entry: domain.NewLedgerEntry("e1", "acc_1", decimal.RequireFromString("0.00000001"), domain.EntryTypeWithdrawal),
		},
		{
			name:       "zero amount",
			entry:      domain.NewLedgerEntry("e1", "acc_1", decimal.Zero, domain.EntryTypeDeposit),
			wantErr:    true,
			wantFields: []string{"amount"},
		},
		{
			name:       "negative amount",
			entry:      domain.NewLedgerEntry("e1", "acc_1", decimal.NewFromInt(-5), domain.EntryTypeDeposit),
			wantErr:    true,
			wantFields: []string{"amount"},
		},
		{
			name:       "too many decimal places",
			entry:      domain.NewLedgerEntry("e1", "acc_1", decimal.RequireFromString("1.000000001"), domain.EntryTypeDeposit),
			wantErr:    true,
			wantFields: []string{"amount"},
		},
		{
			name:       "missing account and unknown type",
			entry:      domain.NewLedgerEntry("e1", " ", decimal.NewFromInt(1), domain.EntryType("transfer")),
			wantErr:    true,
			wantFields: []string{"accountID", "type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			fields := apperrors.FieldsOf(err)
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
			assert.Len(t, fields, len(tt.wantFields))
		})
	}
}

func TestLedgerEntry_Complete(t *testing.T) {
	e := domain.NewLedgerEntry("e1", "acc_1", decimal.NewFromInt(10), domain.EntryTypeDeposit)

	assert.True(t, e.Complete("simulated_hash_e1"))
	assert.Equal(t, domain.EntryStatusCompleted, e.Status)
	require.NotNil(t, e.SettlementRef)
	assert.Equal(t, "simulated_hash_e1", *e.SettlementRef)

	// terminal states are immutable
	assert.False(t, e.Complete("other"))
	assert.False(t, e.Rollback())
	assert.Equal(t, domain.EntryStatusCompleted, e.Status)
	assert.Equal(t, "simulated_hash_e1", *e.SettlementRef)
}

func TestLedgerEntry_CompleteWithoutReference(t *testing.T) {
	e := domain.NewLedgerEntry("e1", "acc_1", decimal.NewFromInt(10), domain.EntryTypeDeposit)

	assert.True(t, e.Complete(""))
	assert.Equal(t, domain.EntryStatusCompleted, e.Status)
	assert.Nil(t, e.SettlementRef)
}

func TestLedgerEntry_Rollback(t *testing.T) {
	e := domain.NewLedgerEntry("e1", "acc_1", decimal.NewFromInt(10), domain.EntryTypeWithdrawal)

	assert.True(t, e.Rollback())
	assert.Equal(t, domain.EntryStatusFailed, e.Status)
	assert.Nil(t, e.SettlementRef)

	assert.False(t, e.Rollback())
	assert.False(t, e.Complete("ref"))
	assert.Equal(t, domain.EntryStatusFailed, e.Status)
	assert.Nil(t, e.SettlementRef)
}

func TestEntryStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.EntryStatusPending.IsTerminal())
	assert.True(t, domain.EntryStatusCompleted.IsTerminal())
	assert.True(t, domain.EntryStatusFailed.IsTerminal())
}
