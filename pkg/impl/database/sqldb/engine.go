package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mandelsoft/dbinit/pkg/database"
	"github.com/mandelsoft/dbinit/pkg/schema"
)

type Engine struct {
	db      *sql.DB
	dialect Dialect
	url     string
}

var _ database.Engine = (*Engine)(nil)

// New creates an engine for an opened database.
// url is used for reporting, only.
func New(db *sql.DB, d Dialect, url string) *Engine {
	return &Engine{db: db, dialect: d, url: url}
}

func (e *Engine) DB() *sql.DB {
	return e.db
}

func (e *Engine) Dialect() string {
	return e.dialect.Name()
}

func (e *Engine) URL() string {
	return e.url
}

func (e *Engine) Ping(ctx context.Context) error {
	err := e.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("cannot connect to %s: %w", e.url, err)
	}
	return nil
}

func (e *Engine) HasTable(ctx context.Context, name string) (bool, error) {
	var count int
	err := e.db.QueryRowContext(ctx, e.dialect.HasTableQuery(), name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	return e.names(ctx, e.dialect.TableNamesQuery())
}

func (e *Engine) ColumnNames(ctx context.Context, table string) ([]string, error) {
	return e.names(ctx, e.dialect.ColumnNamesQuery(), table)
}

func (e *Engine) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (e *Engine) Statements(tables ...*schema.Table) ([]string, error) {
	return Statements(e.dialect, tables...)
}

// CreateTables creates the tables and their indexes
// within a single transaction.
func (e *Engine) CreateTables(ctx context.Context, tables ...*schema.Table) error {
	stmts, err := e.Statements(tables...)
	if err != nil {
		return err
	}
	if len(stmts) == 0 {
		return nil
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		log.Trace("executing {{statement}}", "statement", s)
		if _, err := tx.ExecContext(ctx, s); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w\n%s", err, s)
		}
	}
	return tx.Commit()
}

func (e *Engine) Close() error {
	return e.db.Close()
}
