package main

import "github.com/spf13/cobra"

const engineVersion = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print reorderctl's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Println("reorderctl " + engineVersion)
		return nil
	},
}
