package sqldb

import (
	"github.com/mandelsoft/dbinit/pkg/schema"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgres struct{}

var Postgres Dialect = postgres{}

func (postgres) Name() string {
	return "postgres"
}

func (postgres) DriverName() string {
	return "pgx"
}

func (postgres) ColumnType(c *schema.Column) string {
	switch c.Type {
	case schema.Integer:
		if c.AutoIncrement {
			return "SERIAL"
		}
		return "INTEGER"
	case schema.BigInteger:
		if c.AutoIncrement {
			return "BIGSERIAL"
		}
		return "BIGINT"
	case schema.String:
		return stringType(c)
	case schema.Text:
		return "TEXT"
	case schema.Boolean:
		return "BOOLEAN"
	case schema.Float:
		return "FLOAT"
	case schema.DateTime:
		return "TIMESTAMP WITHOUT TIME ZONE"
	case schema.Binary:
		return "BYTEA"
	}
	return string(c.Type)
}

func (postgres) BooleanLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (postgres) HasTableQuery() string {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
}

func (postgres) TableNamesQuery() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name"
}

func (postgres) ColumnNamesQuery() string {
	return "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position"
}
