package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform-wide counters (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStats()
	},
}

type StatsResponse struct {
	IsAdmin bool `json:"isAdmin"`
	Stats   struct {
		TotalUsers      int64 `json:"totalUsers"`
		TotalGroups     int64 `json:"totalGroups"`
		PendingRequests int64 `json:"pendingRequests"`
		TotalPosts      int64 `json:"totalPosts"`
		TotalReports    int64 `json:"totalReports"`
	} `json:"stats"`
}

func showStats() error {
	body, err := apiRequest("GET", "/api/v1/admin/stats", nil)
	if err != nil {
		return err
	}

	var result StatsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	fmt.Printf("\n📊 Platform Stats\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("  Users:             %d\n", result.Stats.TotalUsers)
	fmt.Printf("  Groups:            %d\n", result.Stats.TotalGroups)
	fmt.Printf("  Pending requests:  %d\n", result.Stats.PendingRequests)
	fmt.Printf("  Messages:          %d\n", result.Stats.TotalPosts)
	fmt.Printf("  Reports:           %d\n", result.Stats.TotalReports)

	return nil
}
