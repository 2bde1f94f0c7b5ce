package cli

import (
	"github.com/spf13/cobra"
)

// addVersionCommand adds the version command.
func addVersionCommand(rootCmd *cobra.Command) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("fincal %s (built %s)\n", Version, BuildDate)
			return nil
		},
	})
}
