package cmd

import (
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/bode-analyzer/internal/app"
)

// profileCmd groups the run profile commands
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Create and check run profiles",
}

var profileInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write an example run profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.GenerateExampleProfile(args[0])
	},
}

var profileValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Check that a run profile loads and yields a valid configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.ValidateProfile(args[0])
	},
}

func init() {
	profileCmd.AddCommand(profileInitCmd, profileValidateCmd)
	rootCmd.AddCommand(profileCmd)
}
