package pgsql

import (
	"time"

	portsrepo "github.com/SscSPs/wallet_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider builds every Postgres repository on one pool.
// txTimeout bounds each ledger transaction; lockTimeout bounds row-lock waits.
func NewRepositoryProvider(dbPool *pgxpool.Pool, txTimeout, lockTimeout time.Duration) portsrepo.RepositoryProvider {
	base := BaseRepository{Pool: dbPool, TxTimeout: txTimeout, LockTimeout: lockTimeout}

	return portsrepo.RepositoryProvider{
		AccountRepo: newPgxAccountRepository(base),
		EntryRepo:   newPgxEntryRepository(base),
		TxManager:   &base,
	}
}
