package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meshring/swim/internal/config"
	"github.com/meshring/swim/internal/daemon"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the node and block until terminated",
	Long:  `Loads the config file given by --config, joins the configured seed peers, and serves probes and the introspection HTTP API until an interrupt or TERM signal arrives.`,
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return fmt.Errorf("swimd run: --config is required")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	node, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("construct node: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return node.Run(ctx)
}
