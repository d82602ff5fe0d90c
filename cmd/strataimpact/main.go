// cmd/strataimpact/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "strataimpact",
	Short: "StrataImpact non-profit website and back office",
	Long: `StrataImpact serves the public site (programs, events, newsletter,
contact form) and the /admin back office that manages it.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	Args:         cobra.ArbitraryArgs,
	// The server takes the WAFFLE flags, which cobra does not know about.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), args)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// passArgs leaves only args on os.Args so the WAFFLE config loader sees
// its own flags and not the cobra subcommand.
func passArgs(args []string) {
	os.Args = append([]string{os.Args[0]}, args...)
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
