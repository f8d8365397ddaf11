package database

import (
	"github.com/Lumos-Labs-HQ/provision/internal/database/common"
	"github.com/Lumos-Labs-HQ/provision/internal/database/mysql"
	"github.com/Lumos-Labs-HQ/provision/internal/database/postgres"
	"github.com/Lumos-Labs-HQ/provision/internal/database/sqlite"
)

func NewAdapter(provider string, opts common.PoolOptions) Executor {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New(opts)
	case "mysql":
		return mysql.New(opts)
	case "sqlite", "sqlite3":
		return sqlite.New(opts)
	default:
		return postgres.New(opts)
	}
}
