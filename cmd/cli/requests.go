package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Manage join requests for groups you organize",
	Long:  "Commands for listing, approving and declining pending join requests",
}

var listRequestsCmd = &cobra.Command{
	Use:   "list <group-id>",
	Short: "List pending join requests for a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listJoinRequests(args[0])
	},
}

var approveRequestCmd = &cobra.Command{
	Use:   "approve <group-id> <request-id>",
	Short: "Approve a join request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideJoinRequest(args[0], args[1], "approve")
	},
}

var declineRequestCmd = &cobra.Command{
	Use:   "decline <group-id> <request-id>",
	Short: "Decline a join request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideJoinRequest(args[0], args[1], "decline")
	},
}

func init() {
	requestsCmd.AddCommand(listRequestsCmd)
	requestsCmd.AddCommand(approveRequestCmd)
	requestsCmd.AddCommand(declineRequestCmd)
}

type JoinRequest struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
	} `json:"user"`
}

type JoinRequestsResponse struct {
	Requests []JoinRequest `json:"requests"`
	Count    int           `json:"count"`
}

func listJoinRequests(groupID string) error {
	body, err := apiRequest("GET", "/api/v1/groups/"+groupID+"/requests", nil)
	if err != nil {
		return err
	}

	var result JoinRequestsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	if result.Count == 0 {
		fmt.Printf("✓ No pending join requests\n")
		return nil
	}

	fmt.Printf("\n📝 Pending Join Requests (%d)\n", result.Count)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tMESSAGE\tCREATED")
	for _, req := range result.Requests {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncateString(req.ID, 8),
			req.User.Username,
			truncateString(req.Message, 40),
			req.CreatedAt)
	}
	w.Flush()
	fmt.Printf("\nUse: huddle requests approve <group-id> <id>\n")
	fmt.Printf("     huddle requests decline <group-id> <id>\n")

	return nil
}

func decideJoinRequest(groupID, requestID, action string) error {
	body, err := apiRequest("POST", "/api/v1/groups/"+groupID+"/requests/"+requestID+"/"+action, nil)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
	} else if action == "approve" {
		fmt.Printf("✓ Join request approved\n")
	} else {
		fmt.Printf("✓ Join request declined\n")
	}

	return nil
}
