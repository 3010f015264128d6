package main

import (
	"github.com/mandelsoft/logging"
	"github.com/mandelsoft/logging/logrusl"
	"github.com/mandelsoft/logging/logrusr"

	"github.com/mandelsoft/dbinit/cmds/dbinit/app"
)

var log logging.Logger

func init() {
	logcfg := logrusl.Human(true)
	lctx := logging.DefaultContext()
	lctx.SetBaseLogger(logrusr.New(logcfg.NewLogrus()))
	log = lctx.Logger(app.REALM)
}
