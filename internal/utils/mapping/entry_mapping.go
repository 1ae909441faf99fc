package mapping

import (
	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	"github.com/SscSPs/wallet_ledger/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		ID:            d.ID,
		AccountID:     d.AccountID,
		Amount:        d.Amount,
		Type:          models.EntryType(d.Type),
		Status:        models.EntryStatus(d.Status),
		SettlementRef: d.SettlementRef,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:            m.ID,
		AccountID:     m.AccountID,
		Amount:        m.Amount,
		Type:          domain.EntryType(m.Type),
		Status:        domain.EntryStatus(m.Status),
		SettlementRef: m.SettlementRef,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLedgerEntrySlice converts a slice of model entries, preserving order.
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
