package installer

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit/installer", "dependency installation")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
