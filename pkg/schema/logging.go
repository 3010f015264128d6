package schema

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit/schema", "model metadata and table creation")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
