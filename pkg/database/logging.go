package database

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit/database", "database engines")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
