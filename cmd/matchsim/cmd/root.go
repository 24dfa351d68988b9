// Package cmd provides the command-line interface for matchsim.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "matchsim",
	Short: "Matchsim simulates NYC high-school admissions as a two-sided " +
		"matching market.",
	Long: `Matchsim generates a synthetic applicant population, constructs ` +
		`preference lists under configurable behavioral policies, runs ` +
		`student-proposing deferred acceptance to a stable assignment, and ` +
		`reports the outcome for the admissions "nutritional label".`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A .env file can supply defaults such as MATCHSIM_PORT; absence is
	// fine.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
