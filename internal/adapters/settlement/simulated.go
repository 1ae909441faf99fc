// Package settlement holds SettlementSvc backends.
package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/wallet_ledger/internal/core/domain"
	"github.com/SscSPs/wallet_ledger/internal/core/ports/services"
)

// SimulatedRefPrefix prefixes every reference the simulated backend issues.
const SimulatedRefPrefix = "simulated_hash_"

var errMissingSigningSecret = errors.New("withdrawal settlement requires a signing secret")

// Simulated settles instantly (or after Delay) and derives the reference from the entry ID.
type Simulated struct {
	Delay time.Duration
}

var _ services.SettlementSvc = (*Simulated)(nil)

// NewSimulated returns a simulated settlement backend.
func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{Delay: delay}
}

func (s *Simulated) Settle(ctx context.Context, req services.SettlementRequest) (string, error) {
	if req.Entry.Type == domain.EntryTypeWithdrawal && req.SigningSecret == "" {
		return "", errMissingSigningSecret
	}
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return SimulatedRefPrefix + req.Entry.ID, nil
}
