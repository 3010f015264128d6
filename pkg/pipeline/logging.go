package pipeline

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit/pipeline", "bootstrap step execution")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
