package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

// Dialect names a supported database engine. Its value is also the
// database/sql driver name.
type Dialect string

const (
	Postgres  Dialect = "postgres"
	PGX       Dialect = "pgx"
	MySQL     Dialect = "mysql"
	SQLite    Dialect = "sqlite"
	SQLServer Dialect = "sqlserver"
)

var Dialects = []Dialect{Postgres, PGX, MySQL, SQLite, SQLServer}

func init() {
	// modernc.org/sqlite registers as "sqlite", which sqlx does not know.
	sqlx.BindDriver(string(SQLite), sqlx.QUESTION)
}

func ParseDialect(name string) (Dialect, error) {
	for _, d := range Dialects {
		if string(d) == name {
			return d, nil
		}
	}
	return "", fmt.Errorf("unsupported database driver: '%s'", name)
}

func (d Dialect) DriverName() string {
	return string(d)
}

func (d Dialect) gooseDialect() goose.Dialect {
	switch d {
	case MySQL:
		return goose.DialectMySQL
	case SQLite:
		return goose.DialectSQLite3
	case SQLServer:
		return goose.DialectMSSQL
	default:
		return goose.DialectPostgres
	}
}

// migrationsDir is the directory under migrations/ holding d's scripts.
func (d Dialect) migrationsDir() string {
	if d == PGX {
		return string(Postgres)
	}
	return string(d)
}
