package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(membersCmd)
	membersCmd.Flags().String("addr", "127.0.0.1:8946", "introspection HTTP address of a running node")
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the membership table of a running node",
	Long:  `Dials a running node's introspection HTTP API and prints its current membership table.`,
	Args:  cobra.NoArgs,
	RunE:  runMembers,
}

type memberView struct {
	Node        string `json:"node"`
	Incarnation uint64 `json:"incarnation"`
}

func runMembers(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/v1/members", addr))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dial %s: unexpected status %d", addr, resp.StatusCode)
	}

	var members []memberView
	if err := json.NewDecoder(resp.Body).Decode(&members); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tINCARNATION")
	for _, m := range members {
		fmt.Fprintf(w, "%s\t%d\n", m.Node, m.Incarnation)
	}
	return w.Flush()
}
