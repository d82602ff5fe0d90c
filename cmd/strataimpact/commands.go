// cmd/strataimpact/commands.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dalemusser/strataimpact/internal/app/bootstrap"
	"github.com/dalemusser/strataimpact/internal/app/system/authutil"
	"github.com/dalemusser/waffle/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:                "serve [waffle flags]",
	Short:              "Start the HTTP server",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), args)
	},
}

func runServe(ctx context.Context, args []string) error {
	passArgs(args)
	return app.Run(ctx, bootstrap.Hooks)
}

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load starter pages, FAQs and projects from a YAML file",
	Long: `Load seed content into the configured database. Existing pages are
kept, and FAQs and projects are only added to empty collections. The
seed admin from configuration is created when missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedFile == "" {
			return errors.New("--file is required")
		}
		data, err := os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		passArgs(nil)
		if err := bootstrap.SeedFromYAML(cmd.Context(), logger, data); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Run the contact message and audit log retention jobs once",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		passArgs(nil)
		return bootstrap.PurgeNow(cmd.Context(), logger)
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash of a password (reads stdin without an argument)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			var err error
			password, err = readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
		}
		return hashPassword(cmd.OutOrStdout(), password)
	},
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func hashPassword(w io.Writer, password string) error {
	if err := authutil.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "strataimpact", version)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed YAML file")
	for _, c := range []*cobra.Command{seedCmd, purgeCmd} {
		c.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	}
	rootCmd.AddCommand(serveCmd, seedCmd, purgeCmd, hashPasswordCmd, versionCmd)
}
