package bootstrap

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit/bootstrap", "dependency installation and schema creation")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
