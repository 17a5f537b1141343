package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point cobra tree. The retrieved teacher sources
// only ever add to an existing rootCmd (internal/cli/agent.go's
// func init() { rootCmd.AddCommand(agentCmd) ... }); its own definition
// lived outside what was retrieved, so this follows the same
// Use/Short/Long shape rather than copying one.
var rootCmd = &cobra.Command{
	Use:   "swimd",
	Short: "A SWIM cluster membership and failure detection node",
	Long: `swimd runs one participant of a SWIM (Scalable Weakly-consistent
Infection-style Membership) protocol cluster: it probes peers, disseminates
membership changes via gossip piggybacked on probe traffic, and exposes the
current membership table over HTTP.`,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the node's TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
