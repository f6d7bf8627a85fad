package internal

import (
	"fmt"

	"github.com/goplus/cellar/internal/build"
	"github.com/goplus/cellar/internal/configure"
	"github.com/goplus/cellar/internal/deps"
	"github.com/goplus/cellar/internal/env"
	"github.com/goplus/cellar/internal/formula"
	"github.com/spf13/cobra"
)

var argsCmd = &cobra.Command{
	Use:   "args <formula> [flags] [--with-<option>...]",
	Short: "Print the configure arguments of a build without running it",
	Long: `Args prints, one per line, the arguments install would pass to the
configure script given the installed dependencies and the --with-<option>
toggles. Nothing is built.`,
	DisableFlagParsing: true,
	RunE:               runArgs,
}

func init() {
	rootCmd.AddCommand(argsCmd)
}

func runArgs(cmd *cobra.Command, args []string) error {
	inv, pkg, err := parseInvocation(cmd.Name(), args, formula.Resolve)
	if err != nil {
		return err
	}
	if inv.help {
		return printHelp(cmd, inv)
	}

	cellarDir, err := env.CellarDir()
	if err != nil {
		return err
	}
	// nothing is built: skip the source copy
	if inv.buildDir == "" {
		inv.buildDir = inv.source
	}
	bctx, cleanup, err := newContext(pkg, inv, cellarDir)
	if err != nil {
		return err
	}
	defer cleanup()

	log := newLogger(cmd.ErrOrStderr(), inv.verbose, inv.json)
	builder := build.NewBuilder(build.Options{Query: deps.NewCellar(cellarDir), Logger: log, Strict: inv.strict})
	configArgs, cc, err := builder.Plan(build.Request{Package: pkg, Invocation: inv.Invocation(), Context: bctx})
	if err != nil {
		return err
	}
	log.Debug("plan", "compiler", cc, "args_fingerprint", fmt.Sprintf("%016x", configure.Fingerprint(configArgs)))

	out := cmd.OutOrStdout()
	for _, a := range configArgs {
		fmt.Fprintln(out, a)
	}
	return nil
}
