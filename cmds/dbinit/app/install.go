package app

import (
	"github.com/spf13/cobra"

	"github.com/mandelsoft/dbinit/pkg/bootstrap"
)

type Install struct {
	cmd *cobra.Command

	mainopts *Options
	dryRun   bool
}

func NewInstall(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <options>",
		Short: "install the dependencies listed in the manifest",
		Long: `
The manifest is validated before the installer is started. With
--dry-run only the validation is done.
`,
	}
	c := &Install{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run() }
	cmd.Flags().BoolVarP(&c.dryRun, "dry-run", "n", false, "validate manifest only")
	return cmd
}

func (c *Install) Run() error {
	bopts := c.mainopts.Bootstrap(c.cmd)
	bopts.DryRun = c.dryRun
	return runSteps(c.cmd, c.mainopts, bopts, bootstrap.STEP_INSTALL)
}
