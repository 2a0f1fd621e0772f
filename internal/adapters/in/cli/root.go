// Package cli implements the CLI adapter for neppage.
// Commands delegate to the app layer.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/acoshift/neppage/internal/app"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "neppage",
		Short: "neppage - multi-tenant static page host",
		Long: `neppage serves many tenants' static sites from one directory tree.

It polls tenant configuration from the config store, keeps the route table
service in sync with every tenant's domains, and writes uploaded files to
disk.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newSignalCmd("reload", "Refresh page configs on the running server", app.SignalReload))
	rootCmd.AddCommand(newSignalCmd("sync", "Run file sync on the running server", app.SignalSync))
	rootCmd.AddCommand(newPlanCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the sync engine and the static server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), *configPath, Version)
		},
	}
}

func newSignalCmd(use, short string, sig syscall.Signal) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.SendSignal(sig); err != nil {
				return err
			}
			cmd.Println(color.GreenString("%s signal sent", use))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("neppage %s\n", Version)
			cmd.Printf("Commit: %s\n", Commit)
			cmd.Printf("Built: %s\n", BuildDate)
		},
	}
}

// signalContext is cancelled on SIGINT so one-shot commands stop early.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}
