package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/mandelsoft/dbinit/pkg/utils"
)

const (
	OUTPUT_TABLE = ""
	OUTPUT_JSON  = "json"
	OUTPUT_YAML  = "yaml"
)

func CheckOutput(output string) error {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case OUTPUT_TABLE, OUTPUT_JSON, OUTPUT_YAML:
		return nil
	}
	return usageError(fmt.Errorf("invalid output format %q (json or yaml)", output))
}

// Output prints structured data. The table format is
// handled by the caller.
func Output(w io.Writer, output string, v interface{}) error {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case OUTPUT_JSON:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", string(data))
	case OUTPUT_YAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s", string(data))
	default:
		return CheckOutput(output)
	}
	return nil
}

// PrintTable prints rows with aligned columns.
func PrintTable(w io.Writer, columns []string, rows [][]string) {
	max := make([]int, len(columns))
	for i, s := range columns {
		max[i] = len(s)
	}
	for _, cols := range rows {
		for i, s := range cols {
			if max[i] < len(s) {
				max[i] = len(s)
			}
		}
	}

	f := formatString(max)
	printLine(w, columns, f)
	for _, cols := range rows {
		printLine(w, cols, f)
	}
}

func printLine(w io.Writer, cols []string, msg string) {
	args := utils.TransformSlice(cols, func(s string) any { return s })
	fmt.Fprintf(w, "%s\n", strings.TrimRight(fmt.Sprintf(msg, args...), " "))
}

func formatString(max []int) string {
	msg := ""
	for _, l := range max {
		msg += fmt.Sprintf("%%-%ds ", l)
	}
	return msg[:len(msg)-1]
}
