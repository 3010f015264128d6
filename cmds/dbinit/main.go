package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mandelsoft/dbinit/cmds/dbinit/app"
	"github.com/mandelsoft/dbinit/pkg/ctxutil"
	"github.com/mandelsoft/dbinit/pkg/pipeline"

	_ "github.com/mandelsoft/dbinit/pkg/impl/database/all"
)

func main() {
	ctx := ctxutil.SignalContext(context.Background())
	defer ctxutil.Cancel(ctx)

	cmd := app.New()
	cmd.SetArgs(os.Args[1:])
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		log.Debug("exiting with status {{status}}", "status", pipeline.ExitCode(err))
		os.Exit(pipeline.ExitCode(err))
	}
}
