package app

import (
	"fmt"

	"github.com/mandelsoft/logging"
)

var REALM = logging.DefineRealm("dbinit", "database bootstrap tool")

var log = logging.DynamicLogger(logging.DefaultContext(), REALM)

// ConfigureLogging enables the given log level for all
// realms of the tool. The rule replaces the one set by
// a previous call.
func ConfigureLogging(level string) error {
	l, err := logging.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	logging.DefaultContext().AddRule(levelRule(l))
	return nil
}

func levelRule(level int) logging.Rule {
	return logging.NewConditionRule(level, logging.NewRealmPrefix("dbinit"))
}
