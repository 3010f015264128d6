package schema

import (
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

// MetaData is a registry of table definitions.
// It is used to drive the schema creation for
// a database engine.
type MetaData struct {
	lock   sync.Mutex
	tables map[string]*Table
}

func NewMetaData() *MetaData {
	return &MetaData{tables: map[string]*Table{}}
}

// Register adds the tables for the given models.
func (m *MetaData) Register(models ...Model) error {
	for _, model := range models {
		t, err := TableFor(model)
		if err != nil {
			return err
		}
		err = m.Add(t)
		if err != nil {
			return err
		}
	}
	return nil
}

// Add adds a table definition. A table name can only
// be registered once.
func (m *MetaData) Add(t *Table) error {
	err := t.Validate()
	if err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.tables[t.Name] != nil {
		return fmt.Errorf("table %q already registered", t.Name)
	}
	m.tables[t.Name] = t
	log.Debug("registered table {{table}}", "table", t.Name)
	return nil
}

func (m *MetaData) Table(name string) *Table {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.tables[name]
}

func (m *MetaData) HasTable(name string) bool {
	return m.Table(name) != nil
}

func (m *MetaData) TableNames() []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return utils.OrderedMapKeys(m.tables)
}

// Tables returns all tables ordered by name.
func (m *MetaData) Tables() []*Table {
	m.lock.Lock()
	defer m.lock.Unlock()
	return utils.OrderedMapElements(m.tables)
}

// SortedTables returns the tables in creation order: tables referenced
// by foreign keys precede the referencing tables. Independent tables are
// ordered by name. Dangling references and reference cycles are reported
// as error.
func (m *MetaData) SortedTables() ([]*Table, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, n := range utils.OrderedMapKeys(m.tables) {
		t := m.tables[n]
		for _, c := range t.Columns {
			if c.ForeignKey == nil {
				continue
			}
			target := m.tables[c.ForeignKey.Table]
			if target == nil {
				return nil, fmt.Errorf("table %q: foreign key %s refers to unknown table", t.Name, c.ForeignKey)
			}
			if target.Column(c.ForeignKey.Column) == nil {
				return nil, fmt.Errorf("table %q: foreign key %s refers to unknown column", t.Name, c.ForeignKey)
			}
		}
	}

	var result []*Table
	done := sets.New[string]()

	var visit func(name string, stack []string) error
	visit = func(name string, stack []string) error {
		if done.Has(name) {
			return nil
		}
		if cycle := utils.Cycle(name, stack...); cycle != nil {
			return fmt.Errorf("foreign key cycle: %s", utils.JoinFunc(cycle, " -> ", func(s string) string { return s }))
		}
		t := m.tables[name]
		for _, d := range t.Dependencies() {
			err := visit(d, append(stack, name))
			if err != nil {
				return err
			}
		}
		done.Insert(name)
		result = append(result, t)
		return nil
	}

	for _, n := range utils.OrderedMapKeys(m.tables) {
		err := visit(n, nil)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Select restricts a list of tables to the given names.
// Unknown names are reported as error.
func (m *MetaData) Select(tables []*Table, names ...string) ([]*Table, error) {
	if len(names) == 0 {
		return tables, nil
	}
	sel := sets.New[string](names...)
	for _, n := range sets.List(sel) {
		if !m.HasTable(n) {
			return nil, fmt.Errorf("%w: %q", ErrNoTable, n)
		}
	}
	var result []*Table
	for _, t := range tables {
		if sel.Has(t.Name) {
			result = append(result, t)
		}
	}
	return result, nil
}

// MustRegister registers the table for model type T and
// panics on errors. It is intended for package initialization.
func MustRegister[T any, P ModelType[T]](m *MetaData) {
	t, err := TableForType[T, P]()
	if err == nil {
		err = m.Add(t)
	}
	if err != nil {
		panic(err)
	}
}
