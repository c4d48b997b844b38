package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Manage your groups and their chats",
	Long:  "Commands for listing your groups, reading chat, and moderating messages",
}

var listGroupsCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups you organize or belong to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listGroups()
	},
}

var groupMessagesCmd = &cobra.Command{
	Use:   "messages <group-id>",
	Short: "List a group's chat messages, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return listGroupMessages(args[0])
	},
}

var hideMessageCmd = &cobra.Command{
	Use:   "hide <group-id> <message-id>",
	Short: "Hide a message (organizer only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return moderateMessage(args[0], args[1], "hide")
	},
}

var showMessageCmd = &cobra.Command{
	Use:   "show <group-id> <message-id>",
	Short: "Restore a hidden or reported message (organizer only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return moderateMessage(args[0], args[1], "show")
	},
}

func init() {
	groupsCmd.AddCommand(listGroupsCmd)
	groupsCmd.AddCommand(groupMessagesCmd)
	groupsCmd.AddCommand(hideMessageCmd)
	groupsCmd.AddCommand(showMessageCmd)
}

type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Sport     string `json:"sport"`
	Location  string `json:"location"`
	CreatorID string `json:"creator_id"`
}

type GroupsResponse struct {
	Groups []Group `json:"groups"`
	Count  int     `json:"count"`
}

type ChatMessage struct {
	ID         string `json:"id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

type MessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
	Count    int           `json:"count"`
}

func listGroups() error {
	body, err := apiRequest("GET", "/api/v1/groups", nil)
	if err != nil {
		return err
	}

	var result GroupsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	if result.Count == 0 {
		fmt.Printf("✓ You are not in any groups yet\n")
		return nil
	}

	fmt.Printf("\n🏟  Your Groups (%d)\n", result.Count)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSPORT\tLOCATION")
	for _, g := range result.Groups {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncateString(g.ID, 8),
			g.Name,
			g.Sport,
			g.Location)
	}
	w.Flush()
	fmt.Printf("\nUse: huddle groups messages <id>\n")

	return nil
}

func listGroupMessages(groupID string) error {
	body, err := apiRequest("GET", "/api/v1/groups/"+groupID+"/messages", nil)
	if err != nil {
		return err
	}

	var result MessagesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if output == "json" {
		fmt.Println(string(body))
		return nil
	}

	if result.Count == 0 {
		fmt.Printf("✓ No messages in this group yet\n")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAUTHOR\tSTATUS\tMESSAGE")
	for _, m := range result.Messages {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncateString(m.ID, 8),
			m.AuthorName,
			m.Status,
			truncateString(m.Content, 60))
	}
	w.Flush()

	return nil
}

func moderateMessage(groupID, messageID, action string) error {
	payload := map[string]string{"action": action}
	body, err := apiRequest("PATCH", "/api/v1/groups/"+groupID+"/messages/"+messageID, payload)
	if err != nil {
		return err
	}

	if output == "json" {
		fmt.Println(string(body))
	} else if action == "hide" {
		fmt.Printf("✓ Message hidden\n")
	} else {
		fmt.Printf("✓ Message restored\n")
	}

	return nil
}
