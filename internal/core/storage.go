package core

import (
	"fmt"
	"os"

	"rpascore/internal/infra/persistence/memory"
	"rpascore/internal/infra/persistence/postgres"
	"rpascore/internal/infra/persistence/sqlite"
	"rpascore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects a backend and carries per-driver parameters.
// Environment variables override non-empty fields so a deployment can switch
// backends without editing the config file.
//
//	RPASCORE_STORAGE_DRIVER: memory|sqlite|postgres
//	RPASCORE_SQLITE_PATH: path to the sqlite file
//	RPASCORE_POSTGRES_DSN: postgres DSN when driver=postgres
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// OpenPersistentStore opens the configured backend with the given rules
// engine. Defaults to sqlite when no driver is named anywhere.
func OpenPersistentStore(cfg StorageConfig, engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := cfg.Driver
	if v := os.Getenv("RPASCORE_STORAGE_DRIVER"); v != "" {
		driver = StorageDriver(v)
	}
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := cfg.SQLitePath
		if v := os.Getenv("RPASCORE_SQLITE_PATH"); v != "" {
			path = v
		}
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := cfg.PostgresDSN
		if v := os.Getenv("RPASCORE_POSTGRES_DSN"); v != "" {
			dsn = v
		}
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
