package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

// OpenSQLX returns a sqlx handle for read queries against the registry.
// Postgres DSNs get their own lib/pq pool; sqlite shares the gorm connection.
func OpenSQLX(dsn string, orm *gorm.DB) (*sqlx.DB, error) {
	if !IsPostgresDSN(dsn) {
		sqlDB, err := orm.DB()
		if err != nil {
			return nil, err
		}
		return sqlx.NewDb(sqlDB, "sqlite3"), nil
	}

	var (
		db  *sqlx.DB
		err error
	)
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return db, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, fmt.Errorf("failed to connect to postgres: %w", err)
}
