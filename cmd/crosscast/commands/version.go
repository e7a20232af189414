package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosscast/crosscast/internal/version"
)

// VersionCmd prints build version information
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crosscast %s (%s)\n", version.Version, version.Commit)
	},
}
