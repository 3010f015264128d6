// Package all registers all supported database engines.
package all

import (
	_ "github.com/mandelsoft/dbinit/pkg/impl/database/filesystem"
	_ "github.com/mandelsoft/dbinit/pkg/impl/database/sqldb"
)
