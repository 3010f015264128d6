package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

// Type is the dialect independent type of a column.
type Type string

const (
	Integer    Type = "integer"
	BigInteger Type = "biginteger"
	String     Type = "string"
	Text       Type = "text"
	Boolean    Type = "boolean"
	Float      Type = "float"
	DateTime   Type = "datetime"
	Binary     Type = "binary"
)

var types = []Type{Integer, BigInteger, String, Text, Boolean, Float, DateTime, Binary}

func ParseType(s string) (Type, error) {
	t := Type(s)
	if !slices.Contains(types, t) {
		return "", fmt.Errorf("unknown column type %q", s)
	}
	return t, nil
}

// DefaultNow is the default value keyword for the
// current time on column creation.
const DefaultNow = "now"

type ForeignKey struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	OnDelete string `json:"onDelete,omitempty"`
}

func (f *ForeignKey) String() string {
	return f.Table + "." + f.Column
}

type Column struct {
	Name          string      `json:"name"`
	Type          Type        `json:"type"`
	Size          int         `json:"size,omitempty"`
	PrimaryKey    bool        `json:"primaryKey,omitempty"`
	AutoIncrement bool        `json:"autoIncrement,omitempty"`
	Nullable      bool        `json:"nullable,omitempty"`
	Unique        bool        `json:"unique,omitempty"`
	Index         bool        `json:"index,omitempty"`
	Default       *string     `json:"default,omitempty"`
	ForeignKey    *ForeignKey `json:"foreignKey,omitempty"`
}

type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// Table describes a database table derived from a model type.
type Table struct {
	Name    string    `json:"name"`
	Columns []*Column `json:"columns"`
	Indexes []*Index  `json:"indexes,omitempty"`

	goType reflect.Type
}

func (t *Table) String() string {
	return t.Name
}

// GoType returns the model type the table has been derived from.
// It is nil for tables not created from a model.
func (t *Table) GoType() reflect.Type {
	return t.goType
}

func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (t *Table) ColumnNames() []string {
	return utils.TransformSlice(t.Columns, func(c *Column) string { return c.Name })
}

func (t *Table) PrimaryKey() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// Dependencies returns the names of the tables referenced
// by foreign keys. Self references are not included.
func (t *Table) Dependencies() []string {
	var deps []string
	for _, c := range t.Columns {
		if c.ForeignKey != nil && c.ForeignKey.Table != t.Name && !slices.Contains(deps, c.ForeignKey.Table) {
			deps = append(deps, c.ForeignKey.Table)
		}
	}
	slices.Sort(deps)
	return deps
}

// Fingerprint is a stable hash of the table definition.
func (t *Table) Fingerprint() (string, error) {
	return utils.HashData(t)
}

var identifier = regexp.MustCompile("^[A-Za-z_][A-Za-z0-9_]*$")

// CheckName checks for a valid table or column name.
func CheckName(name string) bool {
	return identifier.MatchString(name)
}

// Validate checks the table for consistency. References
// to other tables are checked by the MetaData.
func (t *Table) Validate() error {
	if !CheckName(t.Name) {
		return fmt.Errorf("invalid table name %q", t.Name)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q: no columns", t.Name)
	}
	seen := map[string]bool{}
	for _, c := range t.Columns {
		if !CheckName(c.Name) {
			return fmt.Errorf("table %q: invalid column name %q", t.Name, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("table %q: duplicate column %q", t.Name, c.Name)
		}
		seen[c.Name] = true
		if c.AutoIncrement {
			if !c.PrimaryKey || (c.Type != Integer && c.Type != BigInteger) {
				return fmt.Errorf("table %q: autoincrement column %q must be an integer primary key", t.Name, c.Name)
			}
			if len(t.PrimaryKey()) != 1 {
				return fmt.Errorf("table %q: autoincrement column %q requires a single column primary key", t.Name, c.Name)
			}
		}
	}
	for _, i := range t.Indexes {
		for _, n := range i.Columns {
			if !seen[n] {
				return fmt.Errorf("table %q: index %q refers to unknown column %q", t.Name, i.Name, n)
			}
		}
	}
	return nil
}

// IndexName provides the name used for an implicit
// single column index.
func IndexName(table, column string) string {
	return fmt.Sprintf("ix_%s_%s", table, column)
}
