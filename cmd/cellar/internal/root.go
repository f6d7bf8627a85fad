package internal

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/goplus/cellar/internal/logger"
	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

var rootCmd = &cobra.Command{
	Use:   "cellar",
	Short: "cellar builds packages from source",
	Long: `cellar builds packages from source. Features are enabled according to the
optional dependencies installed on the host and the --with-<option> toggles
given on the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		zerr.Log(context.Background(), newLogger(os.Stderr, false, false), err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose, json bool) *slog.Logger {
	return logger.New(w, logger.Options{JSON: json, Verbose: verbose, Color: color.SupportColor()})
}
