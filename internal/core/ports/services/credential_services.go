package services

import (
	"context"

	"github.com/SscSPs/wallet_ledger/internal/core/domain"
)

// CredentialVault seals per-account secrets with the process-wide key.
type CredentialVault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SettlementRequest is what a settlement backend needs to finalise one entry.
type SettlementRequest struct {
	Entry   domain.LedgerEntry
	Account domain.Account
	// SigningSecret is the decrypted account secret; set for withdrawals only.
	SigningSecret string
}

// SettlementSvc finalises a pending entry with an external system and
// returns the reference it was recorded under.
type SettlementSvc interface {
	Settle(ctx context.Context, req SettlementRequest) (string, error)
}
