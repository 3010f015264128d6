package sqldb

import (
	"github.com/mandelsoft/dbinit/pkg/schema"

	_ "modernc.org/sqlite"
)

type sqlite struct{}

var SQLite Dialect = sqlite{}

func (sqlite) Name() string {
	return "sqlite"
}

func (sqlite) DriverName() string {
	return "sqlite"
}

func (sqlite) ColumnType(c *schema.Column) string {
	switch c.Type {
	case schema.Integer:
		return "INTEGER"
	case schema.BigInteger:
		// only INTEGER primary keys alias the rowid
		if c.AutoIncrement {
			return "INTEGER"
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
		return "DATETIME"
	case schema.Binary:
		return "BLOB"
	}
	return string(c.Type)
}

func (sqlite) BooleanLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (sqlite) HasTableQuery() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
}

func (sqlite) TableNamesQuery() string {
	return "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
}

func (sqlite) ColumnNamesQuery() string {
	return "SELECT name FROM pragma_table_info(?) ORDER BY cid"
}
