package internal

import (
	"fmt"

	"github.com/goplus/cellar/internal/formula"
	"github.com/spf13/cobra"
)

var formulasCmd = &cobra.Command{
	Use:   "formulas [dir]",
	Short: "List the formulas in a directory",
	Long: `List the packages declared in dir, the formula directory by default.
Both <name>.yaml and <name>_cellar.gox declarations are listed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormulas,
}

func init() {
	rootCmd.AddCommand(formulasCmd)
}

func runFormulas(cmd *cobra.Command, args []string) error {
	var dir string
	if len(args) > 0 {
		dir = args[0]
	} else {
		d, err := formula.Dir()
		if err != nil {
			return err
		}
		dir = d
	}
	names, err := formula.List(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
