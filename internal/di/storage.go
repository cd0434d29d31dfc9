package di

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewBunDB wraps sqlDB with the bun dialect matching driver.
func NewBunDB(sqlDB *sql.DB, driver string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pgx", "pg":
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	case "sqlite3", "sqlite":
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("openagenda container: unsupported sql driver %q", driver)
	}
}
