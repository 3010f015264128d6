package sqldb

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit/database/sql", "SQL database engine")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
