package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var contextType string

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage persistent research contexts",
	Long: `Manage persistent context notes injected into every query
generation.

Examples:
  researchctl context add "I work in renewable energy" --type profession
  researchctl context list
  researchctl context remove 3
  researchctl context clear`,
}

func init() {
	contextAddCmd.Flags().StringVar(&contextType, "type", "general", "context type (profession, interest, goal, ...)")
	contextCmd.AddCommand(contextAddCmd)
	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextRemoveCmd)
	contextCmd.AddCommand(contextClearCmd)
}

// PersistentContext matches the server's context representation.
type PersistentContext struct {
	ID   int64  `json:"id"`
	Text string `json:"context_text"`
	Type string `json:"context_type"`
}

// ContextListResponse matches internal/httpapi ContextListResponse.
type ContextListResponse struct {
	Contexts []PersistentContext `json:"contexts"`
	Count    int                 `json:"count"`
}

var contextAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a persistent context note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]int64
		err := apiPost("/api/v1/contexts", map[string]string{
			"text": strings.Join(args, " "),
			"type": contextType,
		}, &resp)
		if err != nil {
			return err
		}
		fmt.Printf("Added context #%d\n", resp["id"])
		return nil
	},
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active context notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp ContextListResponse
		if err := apiGet("/api/v1/contexts", &resp); err != nil {
			return err
		}
		if resp.Count == 0 {
			fmt.Println("No active contexts.")
			return nil
		}
		for _, c := range resp.Contexts {
			fmt.Printf("%4d  [%s] %s\n", c.ID, c.Type, c.Text)
		}
		return nil
	},
}

var contextRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a context note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid context id %q", args[0])
		}
		if err := apiDelete(fmt.Sprintf("/api/v1/contexts/%d", id), nil); err != nil {
			return err
		}
		fmt.Printf("Removed context #%d\n", id)
		return nil
	},
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all context notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]int64
		if err := apiDelete("/api/v1/contexts", &resp); err != nil {
			return err
		}
		fmt.Printf("Cleared %d context(s)\n", resp["cleared"])
		return nil
	},
}
