package schema

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Inspector is a Binding able to report the columns
// of an existing table.
type Inspector interface {
	Binding
	ColumnNames(ctx context.Context, table string) ([]string, error)
}

// Drift describes the difference between a table definition
// and the columns actually found in the database.
// It is only reported, create-all never alters existing tables.
type Drift struct {
	Table   string   `json:"table"`
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
}

func (d *Drift) String() string {
	return fmt.Sprintf("%s: missing columns %v, unknown columns %v", d.Table, d.Missing, d.Extra)
}

type Status struct {
	Existing []string `json:"existing,omitempty"`
	Missing  []string `json:"missing,omitempty"`
	Drift    []*Drift `json:"drift,omitempty"`
}

// Ready reports whether all tables exist.
func (s *Status) Ready() bool {
	return len(s.Missing) == 0
}

// Check compares the metadata with the actual database content.
func (m *MetaData) Check(ctx context.Context, insp Inspector, opts ...CreateOption) (*Status, error) {
	missing, existing, err := m.MissingTables(ctx, insp, opts...)
	if err != nil {
		return nil, err
	}
	status := &Status{Existing: existing}
	for _, t := range missing {
		status.Missing = append(status.Missing, t.Name)
	}

	for _, n := range existing {
		names, err := insp.ColumnNames(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("inspecting table %q: %w", n, err)
		}
		actual := sets.New[string](names...)
		expected := sets.New[string](m.Table(n).ColumnNames()...)
		if actual.Equal(expected) {
			continue
		}
		d := &Drift{
			Table:   n,
			Missing: sets.List(expected.Difference(actual)),
			Extra:   sets.List(actual.Difference(expected)),
		}
		log.Warn("table {{table}} differs from its model", "table", n, "missing", d.Missing, "extra", d.Extra)
		status.Drift = append(status.Drift, d)
	}
	return status, nil
}
