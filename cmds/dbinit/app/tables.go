package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mandelsoft/dbinit/pkg/bootstrap"
)

type Tables struct {
	cmd *cobra.Command

	mainopts *Options
	output   string
	tables   []string
}

func NewTables(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables <options>",
		Short: "list the registered tables in creation order",
	}
	c := &Tables{
		cmd:      cmd,
		mainopts: opts,
	}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run() }
	flags := cmd.Flags()
	flags.StringVarP(&c.output, "output", "o", "", "output format (json, yaml)")
	flags.StringSliceVarP(&c.tables, "table", "t", nil, "restrict to given tables")
	return cmd
}

func (c *Tables) Run() error {
	if err := CheckOutput(c.output); err != nil {
		return err
	}
	bopts := c.mainopts.Bootstrap(c.cmd)
	bopts.Tables = c.tables

	list, err := bootstrap.Tables(c.cmd.Context(), bopts)
	if err != nil {
		return err
	}
	if c.output != OUTPUT_TABLE {
		return Output(c.cmd.OutOrStdout(), c.output, list)
	}
	if len(list) == 0 {
		fmt.Fprintf(c.cmd.OutOrStdout(), "no tables registered\n")
		return nil
	}

	var rows [][]string
	for _, t := range list {
		rows = append(rows, []string{strconv.Itoa(t.Order), t.Name, strconv.FormatBool(t.Exists), strings.Join(t.DependsOn, ",")})
	}
	PrintTable(c.cmd.OutOrStdout(), []string{"ORDER", "NAME", "EXISTS", "DEPENDS"}, rows)
	return nil
}
