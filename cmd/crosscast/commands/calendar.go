package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/crosscast/crosscast/platform"
	"github.com/crosscast/crosscast/timing"
)

// CalendarCmd renders the optimal posting calendar
var CalendarCmd = &cobra.Command{
	Use:   "calendar <platforms>",
	Short: "Show the optimal posting calendar",
	Long: `Show the best posting slot per platform for each day of a planning
window, based on per-platform engagement tables.

Platforms are comma-separated, e.g.: crosscast calendar youtube,instagram`,
	Args: cobra.ExactArgs(1),
	RunE: runCalendar,
}

var (
	calendarTZ   string
	calendarDays int
)

func init() {
	CalendarCmd.Flags().StringVar(&calendarTZ, "tz", "UTC", "Audience timezone (IANA name)")
	CalendarCmd.Flags().IntVar(&calendarDays, "days", 7, "Days ahead to plan")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	platforms, err := platform.ParseAll(strings.Split(args[0], ","))
	if err != nil {
		return err
	}

	days, err := timing.NewScheduler().Calendar(platforms, calendarTZ, calendarDays)
	if err != nil {
		return err
	}

	pterm.DefaultSection.Printf("Posting calendar (%s)", calendarTZ)

	header := []string{"Date"}
	for _, p := range platforms {
		header = append(header, string(p))
	}
	rows := pterm.TableData{header}

	for _, day := range days {
		row := []string{day.Date}
		for _, p := range platforms {
			slot := day.Slots[p]
			row = append(row, fmt.Sprintf("%s (%.1fx)", slot.Slot, slot.Score))
		}
		rows = append(rows, row)
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
