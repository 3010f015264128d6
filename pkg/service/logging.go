package service

import (
	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit/service", "service lifecycle")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)
