package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    string = "http://localhost:8787"
	output    string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "huddle",
	Short: "Huddle CLI - Manage your groups from the command line",
	Long: `Huddle CLI provides command-line access to your Huddle account.
Manage your groups, join requests, and moderation queue.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if authToken == "" {
			authToken = os.Getenv("HUDDLE_TOKEN")
		}
		if authToken == "" && cmd.Name() != "help" && cmd.Parent() != nil {
			fmt.Fprintf(os.Stderr, "Error: HUDDLE_TOKEN environment variable not set\n")
			fmt.Fprintf(os.Stderr, "Please set your auth token: export HUDDLE_TOKEN=<your-token>\n")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Authentication token (defaults to HUDDLE_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
