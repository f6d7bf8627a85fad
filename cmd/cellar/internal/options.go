package internal

import (
	"fmt"

	"github.com/goplus/cellar/internal/formula"
	"github.com/spf13/cobra"
)

var optionsCmd = &cobra.Command{
	Use:   "options <formula>",
	Short: "List the build options of a formula",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptions,
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	pkg, err := formula.Resolve(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, o := range pkg.Options {
		fmt.Fprintf(out, "%s\n\t%s\n", o.Flag(), o.Description)
	}
	return nil
}
