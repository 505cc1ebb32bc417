package main

import (
	"fmt"

	"github.com/EthanKenzo12/FC723-Final-Project/internal/config"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/database"
	"github.com/EthanKenzo12/FC723-Final-Project/internal/repository"
)

// openLedger builds the ledger selected by LEDGER_BACKEND, opening the
// database or Redis connection it needs.
func openLedger(cfg *config.Config) (repository.Ledger, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerMemory:
		return repository.NewMemoryLedger(), nil
	case config.LedgerFile:
		return repository.NewFileLedger(cfg.Ledger.File), nil
	case config.LedgerMySQL:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		return repository.NewMySQLLedger(db), nil
	case config.LedgerPostgres:
		db, err := database.OpenPostgres(cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return repository.NewPostgresLedger(db), nil
	case config.LedgerRedis:
		rdb, err := config.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisLedger(rdb, cfg.Ledger.RedisPrefix), nil
	}
	return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
}
