package domain

import (
	"strings"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// EntryType is the direction of a ledger entry relative to its account.
type EntryType string

const (
	EntryTypeDeposit    EntryType = "deposit"
	EntryTypeWithdrawal EntryType = "withdrawal"
)

// IsValid reports whether t is a known entry type.
func (t EntryType) IsValid() bool {
	return t == EntryTypeDeposit || t == EntryTypeWithdrawal
}

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s EntryStatus) IsTerminal() bool {
	return s == EntryStatusCompleted || s == EntryStatusFailed
}

// LedgerEntry is one immutable movement of value on a single account.
// Only Status, SettlementRef and UpdatedAt ever change, and only once, out of pending.
type LedgerEntry struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountID"`
	Amount        decimal.Decimal `json:"amount"`
	Type          EntryType       `json:"type"`
	Status        EntryStatus     `json:"status"`
	SettlementRef *string         `json:"settlementRef,omitempty"`
	AuditFields
}

// NewLedgerEntry returns a pending entry. It does not validate; call Validate.
func NewLedgerEntry(id, accountID string, amount decimal.Decimal, entryType EntryType) *LedgerEntry {
	return &LedgerEntry{
		ID:        id,
		AccountID: accountID,
		Amount:    amount,
		Type:      entryType,
		Status:    EntryStatusPending,
	}
}

// Validate checks the entry before it is persisted. All failing fields are reported together.
func (e *LedgerEntry) Validate() error {
	fields := make(map[string]string)
	if strings.TrimSpace(e.AccountID) == "" {
		fields["accountID"] = "account is required"
	}
	if err := ValidateAmount(e.Amount); err != nil {
		for k, v := range apperrors.FieldsOf(err) {
			fields[k] = v
		}
	}
	if !e.Type.IsValid() {
		fields["type"] = "type must be deposit or withdrawal"
	}
	if e.Status == "" {
		fields["status"] = "status is required"
	}
	if len(fields) > 0 {
		return &apperrors.FieldError{Kind: apperrors.ErrValidation, Fields: fields}
	}
	return nil
}

// IsPending reports whether the entry can still transition.
func (e *LedgerEntry) IsPending() bool {
	return e.Status == EntryStatusPending
}

// Complete moves a pending entry to completed and records the settlement reference
// when one is given. It returns false, changing nothing, if the entry is not pending.
func (e *LedgerEntry) Complete(ref string) bool {
	if !e.IsPending() {
		return false
	}
	e.Status = EntryStatusCompleted
	if ref != "" {
		e.SettlementRef = &ref
	}
	return true
}

// Rollback moves a pending entry to failed. It returns false if the entry is not pending.
func (e *LedgerEntry) Rollback() bool {
	if !e.IsPending() {
		return false
	}
	e.Status = EntryStatusFailed
	return true
}
