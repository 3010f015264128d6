package database

import (
	"context"
	"errors"

	"github.com/mandelsoft/dbinit/pkg/schema"
)

var ErrUnknownScheme = errors.New("unknown database scheme")

// Engine is a handle for a configured database target.
type Engine interface {
	schema.Inspector

	// Dialect is the name of the dialect used to describe tables.
	Dialect() string
	// URL is the database URL with credentials removed.
	URL() string

	// Ping checks whether the database is reachable.
	Ping(ctx context.Context) error
	TableNames(ctx context.Context) ([]string, error)

	// Statements provides the statements executed by
	// CreateTables for the given tables.
	Statements(tables ...*schema.Table) ([]string, error)

	Close() error
}

// Specification describes a database target.
type Specification interface {
	Create(ctx context.Context) (Engine, error)
}
