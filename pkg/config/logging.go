package config

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit/config", "settings and tool options")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
