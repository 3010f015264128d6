package app

import (
	"github.com/spf13/cobra"

	"github.com/mandelsoft/dbinit/pkg/bootstrap"
)

type Migrate struct {
	cmd *cobra.Command

	mainopts *Options
	dryRun   bool
	tables   []string
}

func NewMigrate(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate <options>",
		Short: "create all missing tables",
		Long: `
All registered tables not yet present in the database are created
together with their indexes. Existing tables are skipped and never
altered. With --dry-run the statements are printed instead.
`,
	}
	c := &Migrate{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run() }
	flags := cmd.Flags()
	flags.BoolVarP(&c.dryRun, "dry-run", "n", false, "print statements for missing tables")
	flags.StringSliceVarP(&c.tables, "table", "t", nil, "restrict to given tables")
	return cmd
}

func (c *Migrate) Run() error {
	bopts := c.mainopts.Bootstrap(c.cmd)
	bopts.DryRun = c.dryRun
	bopts.Tables = c.tables
	return runSteps(c.cmd, c.mainopts, bopts, bootstrap.STEP_MIGRATE)
}
