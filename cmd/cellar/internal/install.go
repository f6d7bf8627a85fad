package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/cellar/internal/build"
	"github.com/goplus/cellar/internal/deps"
	"github.com/goplus/cellar/internal/env"
	"github.com/goplus/cellar/internal/formula"
	"github.com/goplus/cellar/internal/vcs"
	"github.com/goplus/cellar/pkgs/buildsys"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <formula> [flags] [--with-<option>...]",
	Short: "Build a package from source and install it into the cellar",
	Long: `Install configures, builds and installs a package from the source tree given
by --source. The source tree itself is never modified: the build runs in a
temporary copy unless --build-dir names one. The copy leaves out version
control metadata (.git, .hg, .svn) and recreates symbolic links as links.

<formula> is a package name looked up in the formula directory, or the path
of a declaration file. Options declared by the formula are enabled with
--with-<option>; run "cellar options <formula>" to list them.

Missing required or build dependencies are reported as warnings and the
build goes ahead; --strict turns them into errors. The git used to name head
builds is $CELLAR_GIT, or git from PATH.`,
	DisableFlagParsing: true,
	RunE:               runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
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
	bctx, cleanup, err := newContext(pkg, inv, cellarDir)
	if err != nil {
		return err
	}
	defer cleanup()

	log := newLogger(cmd.ErrOrStderr(), inv.verbose, inv.json)
	runner := buildsys.ExecRunner{}
	opts := build.Options{
		Runner: runner,
		Query:  deps.NewCellar(cellarDir),
		VCS:    vcs.NewGitVCS(vcs.WithRunner(runner), vcs.WithGitPath(env.Git())),
		Logger: log,
		Strict: inv.strict,
	}
	if inv.verbose {
		opts.Stdout, opts.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
	}

	res, err := build.NewBuilder(opts).Build(cmd.Context(), build.Request{
		Package:    pkg,
		Invocation: inv.Invocation(),
		Context:    bctx,
		Force:      inv.force,
	})
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", pkg.Name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", pkg.Name, bctx.Prefix)
	if res.Version != nil {
		fmt.Fprintf(out, "version: %s (%s)\n", res.Version.Value, res.Version.Source)
	}
	for _, tool := range res.Tools {
		fmt.Fprintf(out, "tool: %s\n", tool)
	}
	printPkgConfigInfo(cmd.Context(), runner, out, bctx.Prefix)
	return nil
}

// printPkgConfigInfo prints the pkg-config flags of every .pc file installed
// under prefix. pkg-config failures are ignored.
func printPkgConfigInfo(ctx context.Context, runner buildsys.Runner, w io.Writer, prefix string) {
	pkgconfigDir := filepath.Join(prefix, "lib", "pkgconfig")
	entries, err := os.ReadDir(pkgconfigDir)
	if err != nil {
		return
	}

	pkgConfigPath := pkgconfigDir
	if cur := os.Getenv("PKG_CONFIG_PATH"); cur != "" {
		pkgConfigPath += ":" + cur
	}
	environ := buildsys.MergeEnv(os.Environ(), map[string]string{"PKG_CONFIG_PATH": pkgConfigPath})

	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".pc")
		if !ok {
			continue
		}
		res, err := runner.Run(ctx, buildsys.Cmd{
			Name: "pkg-config",
			Args: []string{"--libs", "--cflags", name},
			Env:  environ,
		})
		if err != nil || !res.Success() {
			continue
		}
		if flags := strings.TrimSpace(res.Output); flags != "" {
			fmt.Fprintf(w, "%s: %s\n", name, flags)
		}
	}
}

func printHelp(cmd *cobra.Command, inv *invocation) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n\nFlags:\n%s", cmd.Long, cmd.UseLine(), inv.flags.FlagUsages())
	return nil
}
