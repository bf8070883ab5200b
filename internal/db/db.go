package db

import "database/sql"

// DB wraps the shared connection pool so adapters depend on one handle
// type.
type DB struct {
	*sql.DB
}
