package domain

import (
	"github.com/shopspring/decimal"
)

// MaxPublicAddressLength is the column width of accounts.public_address.
const MaxPublicAddressLength = 255

// Account is a wallet owning an append-only stream of ledger entries.
// It never stores a balance; see Balance.
type Account struct {
	ID              string `json:"id"`
	PublicAddress   string `json:"publicAddress"`
	EncryptedSecret string `json:"-"` // ciphertext produced by the credential vault
	AuditFields
}

// Balance is the pair of COMPLETED totals an account's balance is derived from.
type Balance struct {
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
}

// Net returns deposits minus withdrawals.
func (b Balance) Net() decimal.Decimal {
	return b.Deposits.Sub(b.Withdrawals)
}

// Covers reports whether the balance can absorb a withdrawal of amount.
func (b Balance) Covers(amount decimal.Decimal) bool {
	return b.Net().GreaterThanOrEqual(amount)
}

// SumAmounts totals the entries matching both entryType and status.
func SumAmounts(entries []LedgerEntry, entryType EntryType, status EntryStatus) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Type == entryType && e.Status == status {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// DeriveBalance computes the balance from an entry snapshot.
// Pending and failed entries never contribute.
func DeriveBalance(entries []LedgerEntry) Balance {
	return Balance{
		Deposits:    SumAmounts(entries, EntryTypeDeposit, EntryStatusCompleted),
		Withdrawals: SumAmounts(entries, EntryTypeWithdrawal, EntryStatusCompleted),
	}
}
