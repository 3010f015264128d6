package filesystem

import (
	"path/filepath"
)

// DESCRIPTOR is the name of the file describing a table
// inside its table directory.
const DESCRIPTOR = "table.yaml"

func Path(table string) string {
	return filepath.Join(table, DESCRIPTOR)
}
