package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/dbinit/pkg/bootstrap"
)

var ErrNotReady = errors.New("schema not ready")

type Check struct {
	cmd *cobra.Command

	mainopts *Options
	output   string
	tables   []string
}

func NewCheck(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <options>",
		Short: "check whether the database schema is ready",
		Long: `
The database must be reachable and all registered tables must exist.
Columns of existing tables differing from their model are reported,
but do not affect the readiness, because existing tables are never
altered.
`,
	}
	c := &Check{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run() }
	flags := cmd.Flags()
	flags.StringVarP(&c.output, "output", "o", "", "output format (json, yaml)")
	flags.StringSliceVarP(&c.tables, "table", "t", nil, "restrict to given tables")
	return cmd
}

func (c *Check) Run() error {
	if err := CheckOutput(c.output); err != nil {
		return err
	}
	bopts := c.mainopts.Bootstrap(c.cmd)
	bopts.Tables = c.tables

	status, err := bootstrap.Check(c.cmd.Context(), bopts)
	if err != nil {
		return err
	}

	out := c.cmd.OutOrStdout()
	if c.output != OUTPUT_TABLE {
		err = Output(out, c.output, status)
		if err != nil {
			return err
		}
	} else {
		if len(status.Existing) > 0 {
			fmt.Fprintf(out, "existing tables: %s\n", strings.Join(status.Existing, ", "))
		}
		if len(status.Missing) > 0 {
			fmt.Fprintf(out, "missing tables: %s\n", strings.Join(status.Missing, ", "))
		}
		for _, d := range status.Drift {
			fmt.Fprintf(out, "drift: %s\n", d)
		}
	}
	if !status.Ready() {
		return fmt.Errorf("%w: %d tables missing", ErrNotReady, len(status.Missing))
	}
	return nil
}
