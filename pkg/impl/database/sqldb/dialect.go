package sqldb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mandelsoft/dbinit/pkg/schema"
	"github.com/mandelsoft/dbinit/pkg/utils"
)

// Dialect describes the SQL variant of a database.
type Dialect interface {
	Name() string
	DriverName() string

	ColumnType(c *schema.Column) string
	BooleanLiteral(b bool) string

	HasTableQuery() string
	TableNamesQuery() string
	ColumnNamesQuery() string
}

func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func defaultValue(d Dialect, c *schema.Column) (string, error) {
	v := *c.Default
	switch c.Type {
	case schema.Boolean:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return "", err
		}
		return d.BooleanLiteral(b), nil
	case schema.Integer, schema.BigInteger, schema.Float:
		return v, nil
	case schema.DateTime:
		if v == schema.DefaultNow {
			return "CURRENT_TIMESTAMP", nil
		}
	}
	return quoteString(v), nil
}

func columnDefinition(d Dialect, c *schema.Column) (string, error) {
	def := Quote(c.Name) + " " + d.ColumnType(c)
	if c.Default != nil {
		v, err := defaultValue(d, c)
		if err != nil {
			return "", fmt.Errorf("column %q: invalid default: %w", c.Name, err)
		}
		def += " DEFAULT " + v
	}
	if !c.Nullable {
		def += " NOT NULL"
	}
	return def, nil
}

func quoteList(names []string) string {
	return utils.JoinFunc(names, ", ", Quote)
}

// CreateTable provides the statement to create a table
// if it does not exist, yet.
func CreateTable(d Dialect, t *schema.Table) (string, error) {
	var lines []string
	for _, c := range t.Columns {
		def, err := columnDefinition(d, c)
		if err != nil {
			return "", fmt.Errorf("table %q: %w", t.Name, err)
		}
		lines = append(lines, def)
	}
	if pk := t.PrimaryKey(); len(pk) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(pk)))
	}
	for _, c := range t.Columns {
		if c.Unique && !c.Index && !c.PrimaryKey {
			lines = append(lines, fmt.Sprintf("UNIQUE (%s)", Quote(c.Name)))
		}
	}
	for _, c := range t.Columns {
		if fk := c.ForeignKey; fk != nil {
			line := fmt.Sprintf("FOREIGN KEY(%s) REFERENCES %s (%s)", Quote(c.Name), Quote(fk.Table), Quote(fk.Column))
			if fk.OnDelete != "" {
				line += " ON DELETE " + fk.OnDelete
			}
			lines = append(lines, line)
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", Quote(t.Name), strings.Join(lines, ",\n\t")), nil
}

func CreateIndex(t *schema.Table, i *schema.Index) string {
	unique := ""
	if i.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)", unique, Quote(i.Name), Quote(t.Name), quoteList(i.Columns))
}

// Statements provides all statements required to create the given tables.
func Statements(d Dialect, tables ...*schema.Table) ([]string, error) {
	var stmts []string
	for _, t := range tables {
		s, err := CreateTable(d, t)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		for _, i := range t.Indexes {
			stmts = append(stmts, CreateIndex(t, i))
		}
	}
	return stmts, nil
}

func stringType(c *schema.Column) string {
	if c.Size > 0 {
		return fmt.Sprintf("VARCHAR(%d)", c.Size)
	}
	return "VARCHAR"
}
