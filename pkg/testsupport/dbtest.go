package testsupport

import (
	"database/sql"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

func NewSQLiteMemoryDB() (*sql.DB, error) {
	return sql.Open("sqlite3", "file::memory:?cache=shared")
}

// NewSQLiteMemoryDBNamed opens a shared-cache memory database isolated by
// name, so tests in one package do not see each other's tables.
func NewSQLiteMemoryDBNamed(name string) (*sql.DB, error) {
	return sql.Open("sqlite3", "file:"+url.PathEscape(name)+"?mode=memory&cache=shared")
}
