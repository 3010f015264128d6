package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/dbinit/pkg/bootstrap"
)

type SQL struct {
	cmd *cobra.Command

	mainopts *Options
	tables   []string
}

func NewSQL(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sql <options>",
		Short: "print the statements creating all registered tables",
		Long: `
The statements are generated for the dialect of the configured
database. The database is not accessed.
`,
	}
	c := &SQL{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run() }
	cmd.Flags().StringSliceVarP(&c.tables, "table", "t", nil, "restrict to given tables")
	return cmd
}

func (c *SQL) Run() error {
	bopts := c.mainopts.Bootstrap(c.cmd)
	bopts.Tables = c.tables

	stmts, err := bootstrap.Statements(c.cmd.Context(), bopts)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if strings.HasSuffix(s, "\n") {
			fmt.Fprint(c.cmd.OutOrStdout(), s)
		} else {
			fmt.Fprintf(c.cmd.OutOrStdout(), "%s;\n", s)
		}
	}
	return nil
}
