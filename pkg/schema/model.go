package schema

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

// TAG is the struct tag used to describe columns.
//
//	db:"<column>[,pk][,autoincrement][,unique][,index][,null][,type=<type>][,size=<n>][,default=<value>][,fk=<table>.<column>][,ondelete=<action>]"
//
// A tag value of "-" excludes a field. Anonymous struct fields
// without tag contribute their columns to the embedding model.
const TAG = "db"

// Model is implemented by types describing a database table.
type Model interface {
	TableName() string
}

type ModelType[P any] interface {
	Model
	*P
}

// TableFor derives the table description for a model.
func TableFor(m Model) (*Table, error) {
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model %s must be a struct", t)
	}
	table := &Table{
		Name:   m.TableName(),
		goType: t,
	}
	err := addColumns(table, t)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", t, err)
	}
	for _, c := range table.Columns {
		if c.Index {
			table.Indexes = append(table.Indexes, &Index{
				Name:    IndexName(table.Name, c.Name),
				Columns: []string{c.Name},
				Unique:  c.Unique,
			})
		}
	}
	err = table.Validate()
	if err != nil {
		return nil, err
	}
	return table, nil
}

// TableForType derives the table description for
// the model type T.
func TableForType[T any, P ModelType[T]]() (*Table, error) {
	var proto T
	return TableFor(P(&proto))
}

func addColumns(table *Table, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, tagged := f.Tag.Lookup(TAG)
		if tag == "-" {
			continue
		}
		if f.Anonymous && !tagged {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				err := addColumns(table, ft)
				if err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() || !tagged {
			continue
		}
		c, err := columnFor(f, tag)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		table.Columns = append(table.Columns, c)
	}
	return nil
}

var (
	typeTime        = utils.TypeOf[time.Time]()
	typeBytes       = utils.TypeOf[[]byte]()
	typeNullString  = utils.TypeOf[sql.NullString]()
	typeNullInt64   = utils.TypeOf[sql.NullInt64]()
	typeNullInt32   = utils.TypeOf[sql.NullInt32]()
	typeNullInt16   = utils.TypeOf[sql.NullInt16]()
	typeNullBool    = utils.TypeOf[sql.NullBool]()
	typeNullFloat64 = utils.TypeOf[sql.NullFloat64]()
	typeNullTime    = utils.TypeOf[sql.NullTime]()
)

// columnType maps a Go type to a column type. The second
// result reports whether the Go type can represent NULL.
func columnType(t reflect.Type) (Type, bool, error) {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}
	switch t {
	case typeTime:
		return DateTime, nullable, nil
	case typeBytes:
		return Binary, true, nil
	case typeNullString:
		return String, true, nil
	case typeNullInt64:
		return BigInteger, true, nil
	case typeNullInt32, typeNullInt16:
		return Integer, true, nil
	case typeNullBool:
		return Boolean, true, nil
	case typeNullFloat64:
		return Float, true, nil
	case typeNullTime:
		return DateTime, true, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Integer, nullable, nil
	case reflect.Int64, reflect.Uint64:
		return BigInteger, nullable, nil
	case reflect.String:
		return String, nullable, nil
	case reflect.Bool:
		return Boolean, nullable, nil
	case reflect.Float32, reflect.Float64:
		return Float, nullable, nil
	}
	return "", false, fmt.Errorf("unsupported Go type %s", t)
}

func columnFor(f reflect.StructField, tag string) (*Column, error) {
	typ, nullable, err := columnType(f.Type)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(tag, ",")
	c := &Column{
		Name:     strings.TrimSpace(parts[0]),
		Type:     typ,
		Nullable: nullable,
	}
	if c.Name == "" {
		return nil, fmt.Errorf("column name missing in tag %q", tag)
	}

	for _, p := range parts[1:] {
		key, value, hasValue := strings.Cut(strings.TrimSpace(p), "=")
		switch key {
		case "pk":
			c.PrimaryKey = true
		case "autoincrement":
			c.AutoIncrement = true
		case "unique":
			c.Unique = true
		case "index":
			c.Index = true
		case "null":
			c.Nullable = true
		case "type":
			c.Type, err = ParseType(value)
			if err != nil {
				return nil, err
			}
		case "size":
			c.Size, err = strconv.Atoi(value)
			if err != nil || c.Size <= 0 {
				return nil, fmt.Errorf("invalid size %q", value)
			}
		case "default":
			if !hasValue {
				return nil, fmt.Errorf("default value missing")
			}
			c.Default = utils.Pointer(value)
		case "fk":
			tab, col, ok := strings.Cut(value, ".")
			if !ok || tab == "" || col == "" {
				return nil, fmt.Errorf("invalid foreign key %q: <table>.<column> expected", value)
			}
			c.ForeignKey = &ForeignKey{Table: tab, Column: col}
		case "ondelete":
			if c.ForeignKey == nil {
				return nil, fmt.Errorf("ondelete requires a preceding fk option")
			}
			action := strings.ToUpper(value)
			switch action {
			case "CASCADE", "RESTRICT", "SET NULL", "SET DEFAULT", "NO ACTION":
			default:
				return nil, fmt.Errorf("invalid ondelete action %q", value)
			}
			c.ForeignKey.OnDelete = action
		case "":
		default:
			return nil, fmt.Errorf("unknown column option %q", key)
		}
	}

	if c.PrimaryKey {
		c.Nullable = false
	}
	if c.Size > 0 && c.Type != String {
		return nil, fmt.Errorf("size only supported for string columns")
	}
	if c.Default != nil {
		err = checkDefault(c.Type, *c.Default)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func checkDefault(t Type, v string) error {
	var err error
	switch t {
	case Boolean:
		_, err = strconv.ParseBool(v)
	case Integer, BigInteger:
		_, err = strconv.ParseInt(v, 10, 64)
	case Float:
		_, err = strconv.ParseFloat(v, 64)
	case DateTime:
		if v != DefaultNow {
			_, err = time.Parse(time.RFC3339, v)
		}
	case Binary:
		err = fmt.Errorf("not supported")
	}
	if err != nil {
		return fmt.Errorf("invalid default %q for %s column", v, t)
	}
	return nil
}
