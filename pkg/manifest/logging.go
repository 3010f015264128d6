package manifest

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit/manifest", "dependency manifests")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
