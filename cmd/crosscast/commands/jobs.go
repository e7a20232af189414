package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/crosscast/crosscast/publish"
)

// JobsCmd inspects stored publishing jobs
var JobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect publishing jobs",
}

var jobsLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List finished publishing jobs",
	RunE:    runJobsLs,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one job with its per-platform results",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job outcome counts",
	RunE:  runJobsStats,
}

var (
	jobsConfigPath string
	jobsDBPath     string
	jobsStatus     string
	jobsLimit      int
)

func init() {
	JobsCmd.PersistentFlags().StringVar(&jobsConfigPath, "config", "", "Config file path")
	JobsCmd.PersistentFlags().StringVar(&jobsDBPath, "db-path", "", "Custom database path")
	jobsLsCmd.Flags().StringVar(&jobsStatus, "status", "", "Filter by status (completed, partial, failed, cancelled)")
	jobsLsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "Maximum jobs to list")

	JobsCmd.AddCommand(jobsLsCmd)
	JobsCmd.AddCommand(jobsShowCmd)
	JobsCmd.AddCommand(jobsStatsCmd)
}

func openJobStore() (*publish.Store, func(), error) {
	cfg, err := loadConfig(jobsConfigPath)
	if err != nil {
		return nil, nil, err
	}
	database, err := openDatabase(cfg, jobsDBPath)
	if err != nil {
		return nil, nil, err
	}
	return publish.NewStore(database), func() { database.Close() }, nil
}

func runJobsLs(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openJobStore()
	if err != nil {
		return err
	}
	defer closeDB()

	var status *publish.Status
	if jobsStatus != "" {
		if !publish.IsValidStatus(jobsStatus) {
			return fmt.Errorf("unknown status %q", jobsStatus)
		}
		st := publish.Status(jobsStatus)
		status = &st
	}

	jobs, err := store.ListSnapshots(status, jobsLimit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		pterm.Info.Println("No jobs found")
		return nil
	}

	rows := pterm.TableData{{"ID", "Status", "Platforms", "Title", "Completed"}}
	for _, job := range jobs {
		completed := ""
		if job.CompletedAt != nil {
			completed = job.CompletedAt.Format("2006-01-02 15:04")
		}
		platforms := make([]string, 0, len(job.Platforms))
		for _, p := range job.Platforms {
			platforms = append(platforms, string(p))
		}
		rows = append(rows, []string{
			job.ID,
			string(job.Status),
			strings.Join(platforms, ","),
			job.Title,
			completed,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openJobStore()
	if err != nil {
		return err
	}
	defer closeDB()

	job, err := store.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	if job == nil {
		pterm.Warning.Printf("Job %s not found\n", args[0])
		return nil
	}

	pterm.DefaultSection.Printf("Job %s", job.ID)
	pterm.Info.Printf("Owner:    %s\n", job.OwnerID)
	pterm.Info.Printf("Status:   %s (%d%%)\n", job.Status, job.Progress)
	pterm.Info.Printf("Media:    %s\n", job.MediaRef)
	if job.Title != "" {
		pterm.Info.Printf("Title:    %s\n", job.Title)
	}
	if job.Error != "" {
		pterm.Warning.Printf("Error:    %s\n", job.Error)
	}

	rows := pterm.TableData{{"Platform", "Outcome", "Post", "Error"}}
	for _, p := range job.Platforms {
		result := job.Results[p]
		if result == nil {
			rows = append(rows, []string{string(p), "not attempted", "", ""})
			continue
		}
		outcome := "failed"
		if result.Success {
			outcome = "published"
		}
		rows = append(rows, []string{string(p), outcome, result.PostURL, result.Error})
	}
	pterm.Println()
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runJobsStats(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openJobStore()
	if err != nil {
		return err
	}
	defer closeDB()

	stats, err := store.GetStats()
	if err != nil {
		return err
	}

	rows := pterm.TableData{
		{"Outcome", "Count"},
		{"completed", fmt.Sprintf("%d", stats.Completed)},
		{"partial", fmt.Sprintf("%d", stats.Partial)},
		{"failed", fmt.Sprintf("%d", stats.Failed)},
		{"cancelled", fmt.Sprintf("%d", stats.Cancelled)},
		{"total", fmt.Sprintf("%d", stats.Total)},
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
