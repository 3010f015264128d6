package schema

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoTable = errors.New("table not registered")

// Binding is the part of a database engine
// required to materialize a schema.
type Binding interface {
	HasTable(ctx context.Context, name string) (bool, error)
	// CreateTables creates the given tables together
	// with their indexes in the given order.
	CreateTables(ctx context.Context, tables ...*Table) error
}

type CreateResult struct {
	Created []string `json:"created,omitempty"`
	Skipped []string `json:"skipped,omitempty"`
}

type createOptions struct {
	tables []string
}

type CreateOption func(o *createOptions)

// WithTables restricts the operation to the given tables.
func WithTables(names ...string) CreateOption {
	return func(o *createOptions) {
		o.tables = append(o.tables, names...)
	}
}

// MissingTables returns the tables not yet present in the
// database in creation order, and the names of the existing ones.
func (m *MetaData) MissingTables(ctx context.Context, bind Binding, opts ...CreateOption) ([]*Table, []string, error) {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}

	tables, err := m.SortedTables()
	if err != nil {
		return nil, nil, err
	}
	tables, err = m.Select(tables, o.tables...)
	if err != nil {
		return nil, nil, err
	}

	var missing []*Table
	var existing []string
	for _, t := range tables {
		ok, err := bind.HasTable(ctx, t.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("checking table %q: %w", t.Name, err)
		}
		if ok {
			log.Debug("table {{table}} already exists", "table", t.Name)
			existing = append(existing, t.Name)
		} else {
			missing = append(missing, t)
		}
	}
	return missing, existing, nil
}

// CreateAll creates all tables described by the metadata which
// do not exist yet. Existing tables are skipped and never altered,
// so calling it repeatedly is a no-op once all tables exist.
func (m *MetaData) CreateAll(ctx context.Context, bind Binding, opts ...CreateOption) (*CreateResult, error) {
	missing, existing, err := m.MissingTables(ctx, bind, opts...)
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Skipped: existing}
	if len(missing) == 0 {
		log.Info("all {{count}} tables already exist", "count", len(existing))
		return result, nil
	}

	for _, t := range missing {
		log.Info("creating table {{table}}", "table", t.Name)
		result.Created = append(result.Created, t.Name)
	}
	err = bind.CreateTables(ctx, missing...)
	if err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	log.Info("created {{created}} tables, skipped {{skipped}}", "created", len(result.Created), "skipped", len(result.Skipped))
	return result, nil
}
