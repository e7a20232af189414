package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crosscast/crosscast/cmd/crosscast/commands"
	"github.com/crosscast/crosscast/logger"
)

var rootCmd = &cobra.Command{
	Use:   "crosscast",
	Short: "Crosscast - multi-platform content publishing orchestrator",
	Long: `Crosscast publishes media to multiple social platforms in one shot,
tracks provider quotas, schedules posts at optimal engagement times, and
streams live job status over WebSocket.

Available commands:
  serve    - Start the publishing server (API + WebSocket + scheduler)
  jobs     - Inspect publishing jobs
  calendar - Show the optimal posting calendar
  quota    - Manage provider quotas

Examples:
  crosscast serve                                  # Start the server
  crosscast jobs ls --status partial               # List partial jobs
  crosscast calendar youtube,instagram --days 7    # Posting calendar
  crosscast quota show chan-1                      # Quota usage per provider`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(false); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.JobsCmd)
	rootCmd.AddCommand(commands.CalendarCmd)
	rootCmd.AddCommand(commands.QuotaCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
