package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/crosscast/crosscast/quota"
)

// QuotaCmd manages provider quotas
var QuotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Manage provider quotas",
}

var quotaShowCmd = &cobra.Command{
	Use:   "show <channel-id>",
	Short: "Show quota usage per provider for a channel",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuotaShow,
}

var quotaSetCmd = &cobra.Command{
	Use:   "set <channel-id> <provider-id>",
	Short: "Configure a provider quota for a channel",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuotaSet,
}

var (
	quotaConfigPath string
	quotaDBPath     string
	quotaLimit      int
	quotaInactive   bool
)

func init() {
	QuotaCmd.PersistentFlags().StringVar(&quotaConfigPath, "config", "", "Config file path")
	QuotaCmd.PersistentFlags().StringVar(&quotaDBPath, "db-path", "", "Custom database path")
	quotaSetCmd.Flags().IntVar(&quotaLimit, "limit", 0, "Monthly call limit (0 uses the configured default)")
	quotaSetCmd.Flags().BoolVar(&quotaInactive, "inactive", false, "Mark the provider inactive for this channel")

	QuotaCmd.AddCommand(quotaShowCmd)
	QuotaCmd.AddCommand(quotaSetCmd)
}

func runQuotaShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(quotaConfigPath)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg, quotaDBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := quota.NewTracker(database).ListByChannel(args[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		pterm.Info.Printf("No quotas configured for channel %s\n", args[0])
		return nil
	}

	rows := pterm.TableData{{"Provider", "Usage", "Limit", "Resets", "Active"}}
	for _, rec := range records {
		active := "yes"
		if !rec.Active {
			active = "no"
		}
		rows = append(rows, []string{
			rec.ProviderID,
			fmt.Sprintf("%d", rec.CurrentUsage),
			fmt.Sprintf("%d", rec.MonthlyLimit),
			rec.ResetAt.Format("2006-01-02"),
			active,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runQuotaSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(quotaConfigPath)
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg, quotaDBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	limit := quotaLimit
	if limit <= 0 {
		limit = cfg.Quota.DefaultMonthlyLimit
	}

	channelID, providerID := args[0], args[1]
	if err := quota.NewTracker(database).Configure(channelID, providerID, limit, !quotaInactive); err != nil {
		return err
	}

	pterm.Success.Printf("Quota set: channel=%s provider=%s limit=%d active=%t\n",
		channelID, providerID, limit, !quotaInactive)
	return nil
}
