package bootstrap

import (
	"context"

	"github.com/mandelsoft/dbinit/pkg/database"
	"github.com/mandelsoft/dbinit/pkg/schema"
)

type TableInfo struct {
	Name        string   `json:"name"`
	Order       int      `json:"order"`
	Exists      bool     `json:"exists"`
	DependsOn   []string `json:"dependsOn,omitempty"`
	Fingerprint string   `json:"fingerprint"`
}

// Tables lists the registered tables in creation order and
// whether they already exist in the configured database.
func Tables(ctx context.Context, opts *Options) ([]*TableInfo, error) {
	e, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	md := opts.metadata()
	tables, err := md.SortedTables()
	if err != nil {
		return nil, err
	}
	tables, err = md.Select(tables, opts.Tables...)
	if err != nil {
		return nil, err
	}

	var result []*TableInfo
	for i, t := range tables {
		ok, err := e.HasTable(ctx, t.Name)
		if err != nil {
			return nil, err
		}
		fp, err := t.Fingerprint()
		if err != nil {
			return nil, err
		}
		result = append(result, &TableInfo{
			Name:        t.Name,
			Order:       i + 1,
			Exists:      ok,
			DependsOn:   t.Dependencies(),
			Fingerprint: fp,
		})
	}
	return result, nil
}

// Statements provides the complete DDL for the registered
// tables in the dialect of the configured database.
// The database is not required to be reachable.
func Statements(ctx context.Context, opts *Options) ([]string, error) {
	u, err := opts.URL()
	if err != nil {
		return nil, err
	}
	e, err := database.Open(ctx, u)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	md := opts.metadata()
	tables, err := md.SortedTables()
	if err != nil {
		return nil, err
	}
	tables, err = md.Select(tables, opts.Tables...)
	if err != nil {
		return nil, err
	}
	return e.Statements(tables...)
}

// Check reports the schema state of the configured database.
// Existing tables are compared column-wise with their model.
func Check(ctx context.Context, opts *Options) (*schema.Status, error) {
	e, err := Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return opts.metadata().Check(ctx, e, schema.WithTables(opts.Tables...))
}
