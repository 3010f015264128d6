package filesystem

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/dbinit/pkg/database"
	"github.com/mandelsoft/dbinit/pkg/schema"
	"github.com/mandelsoft/dbinit/pkg/utils"
)

const DIALECT = "filesystem"

// Descriptor is the persisted form of a table.
type Descriptor struct {
	schema.Table `json:",inline"`
	Fingerprint  string          `json:"fingerprint"`
	Created      utils.Timestamp `json:"created"`
}

// Database stores every table as directory containing
// a table descriptor. It is intended for local development
// and tests without a database server.
type Database struct {
	lock sync.Mutex
	path string
	fs   vfs.FileSystem
}

var _ database.Engine = (*Database)(nil)

// New provides a database for the given directory.
// The directory is created with the first table.
func New(path string, fss ...vfs.FileSystem) (*Database, error) {
	fs := utils.OptionalDefaulted(vfs.FileSystem(osfs.OsFs), fss...)
	return &Database{path: path, fs: fs}, nil
}

func (d *Database) Dialect() string {
	return DIALECT
}

func (d *Database) URL() string {
	return "file://" + d.path
}

// Ping checks that the database directory exists or
// can be created in an existing parent directory.
func (d *Database) Ping(ctx context.Context) error {
	fi, err := d.fs.Stat(d.path)
	if errors.Is(err, vfs.ErrNotExist) {
		fi, err = d.fs.Stat(filepath.Dir(d.path))
	}
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", d.URL(), err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is no directory", d.URL())
	}
	return nil
}

func (d *Database) HasTable(ctx context.Context, name string) (bool, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.exists(name)
}

func (d *Database) exists(name string) (bool, error) {
	_, err := d.fs.Stat(d.Path(Path(name)))
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *Database) TableNames(ctx context.Context) ([]string, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	list, err := vfs.ReadDir(d.fs, d.path)
	if err != nil {
		if errors.Is(err, vfs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range list {
		if !e.IsDir() {
			continue
		}
		ok, err := d.exists(e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (d *Database) ColumnNames(ctx context.Context, table string) ([]string, error) {
	desc, err := d.Descriptor(table)
	if err != nil {
		return nil, err
	}
	return desc.ColumnNames(), nil
}

// Descriptor reads the persisted description of a table.
func (d *Database) Descriptor(table string) (*Descriptor, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	path := d.Path(Path(table))
	data, err := vfs.ReadFile(d.fs, path)
	if err != nil {
		return nil, err
	}
	var desc Descriptor
	err = yaml.Unmarshal(data, &desc)
	if err != nil {
		return nil, fmt.Errorf("corrupted database: %s: %w", path, err)
	}
	if desc.Name != table {
		return nil, fmt.Errorf("corrupted database: %s does not describe table %q", path, table)
	}
	return &desc, nil
}

func descriptor(t *schema.Table) (*Descriptor, error) {
	fp, err := t.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		Table:       *t,
		Fingerprint: fp,
		Created:     utils.NewTimestamp(),
	}, nil
}

func (d *Database) Statements(tables ...*schema.Table) ([]string, error) {
	var stmts []string
	for _, t := range tables {
		desc, err := descriptor(t)
		if err != nil {
			return nil, err
		}
		data, err := yaml.Marshal(desc)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, fmt.Sprintf("# %s\n%s", Path(t.Name), data))
	}
	return stmts, nil
}

// CreateTables writes the descriptors of all given tables.
// Tables already present are kept.
func (d *Database) CreateTables(ctx context.Context, tables ...*schema.Table) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := d.exists(t.Name)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		desc, err := descriptor(t)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(desc)
		if err != nil {
			return err
		}
		path := d.Path(Path(t.Name))
		err = d.fs.MkdirAll(filepath.Dir(path), 0o700)
		if err != nil {
			return err
		}
		err = vfs.WriteFile(d.fs, path, data, 0o600)
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) Close() error {
	return nil
}

func (d *Database) Path(path string) string {
	return filepath.Join(d.path, path)
}
