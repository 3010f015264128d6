package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/mandelsoft/dbinit/pkg/database"
)

const MEMORY = ":memory:"

type Specification struct {
	Dialect Dialect
	// DSN is the data source name passed to the driver.
	DSN string
	// URL is the redacted database URL.
	URL string
}

var _ database.Specification = (*Specification)(nil)

func NewSpecification(d Dialect, dsn string, url string) *Specification {
	return &Specification{Dialect: d, DSN: dsn, URL: url}
}

func (s *Specification) Create(ctx context.Context) (database.Engine, error) {
	db, err := sql.Open(s.Dialect.DriverName(), s.DSN)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", s.URL, err)
	}
	if s.Dialect == SQLite && strings.HasPrefix(s.DSN, MEMORY) {
		// every connection would get its own in-memory database
		db.SetMaxOpenConns(1)
	}
	return New(db, s.Dialect, s.URL), nil
}

// SQLiteSpecification maps the URL forms
//
//	sqlite://                    in-memory database
//	sqlite:///:memory:           in-memory database
//	sqlite:///relative/path.db   path relative to the working directory
//	sqlite:////absolute/path.db  absolute path
//	sqlite:path.db               path relative to the working directory
//
// Query parameters are passed to the driver. Foreign key
// enforcement is enabled if no pragma is given.
func SQLiteSpecification(u *url.URL) (database.Specification, error) {
	if u.Host != "" {
		return nil, fmt.Errorf("sqlite URL must not contain a host (%q)", u.Host)
	}
	path := u.Opaque
	if path == "" {
		path = strings.TrimPrefix(u.Path, "/")
	}
	if path == "" {
		path = MEMORY
	}

	q := u.Query()
	if !q.Has("_pragma") {
		q.Add("_pragma", "foreign_keys(1)")
	}
	return NewSpecification(SQLite, path+"?"+q.Encode(), u.Redacted()), nil
}

// PostgresSpecification accepts postgres:// and postgresql:// URLs
// with an optional driver suffix (postgresql+psycopg2://).
func PostgresSpecification(u *url.URL) (database.Specification, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("postgres URL requires a host")
	}
	dsn := *u
	dsn.Scheme = "postgres"
	return NewSpecification(Postgres, dsn.String(), u.Redacted()), nil
}

func init() {
	database.Register("sqlite", SQLiteSpecification)
	database.Register("postgres", PostgresSpecification)
	database.Register("postgresql", PostgresSpecification)
}
