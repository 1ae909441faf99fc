package models

import "github.com/shopspring/decimal"

// EntryType mirrors the ledger_entries.type check constraint.
type EntryType string

// EntryStatus mirrors the ledger_entries.status check constraint.
type EntryStatus string

// LedgerEntry is the ledger_entries row.
type LedgerEntry struct {
	ID            string          `db:"id"`
	AccountID     string          `db:"account_id"`
	Amount        decimal.Decimal `db:"amount"`
	Type          EntryType       `db:"type"`
	Status        EntryStatus     `db:"status"`
	SettlementRef *string         `db:"settlement_ref"` // nullable
	AuditFields
}
