package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

var (
	memoryLimit int
	memoryKind  string
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and extend semantic memory",
	Long: `Inspect the semantic memory the assistant builds from your
research, or add notes to it directly.

Examples:
  researchctl memory list
  researchctl memory search "solar panels"
  researchctl memory add "I prefer peer-reviewed sources"
  researchctl memory preferences`,
}

func init() {
	memoryListCmd.Flags().IntVar(&memoryLimit, "limit", 20, "number of records to show")
	memoryAddCmd.Flags().StringVar(&memoryKind, "kind", "", "record kind (defaults to a manual note)")
	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memorySearchCmd)
	memoryCmd.AddCommand(memoryAddCmd)
	memoryCmd.AddCommand(memoryPreferencesCmd)
}

// MemoryListResponse matches internal/httpapi MemoryListResponse.
type MemoryListResponse struct {
	Memories []struct {
		ID       string            `json:"id"`
		Text     string            `json:"text"`
		Score    float32           `json:"score,omitempty"`
		Metadata map[string]string `json:"metadata,omitempty"`
	} `json:"memories"`
	Count int `json:"count"`
}

func printMemories(resp MemoryListResponse) {
	if resp.Count == 0 {
		fmt.Println("No memories.")
		return
	}
	for _, m := range resp.Memories {
		kind := m.Metadata["type"]
		if kind == "" {
			kind = "unknown"
		}
		firstLine := m.Text
		if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
			firstLine = firstLine[:idx]
		}
		fmt.Printf("[%s] %s\n", kind, firstLine)
	}
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List memory records",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp MemoryListResponse
		if err := apiGet(fmt.Sprintf("/api/v1/memory?limit=%d", memoryLimit), &resp); err != nil {
			return err
		}
		printMemories(resp)
		return nil
	},
}

var memorySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search memory semantically",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.QueryEscape(strings.Join(args, " "))
		var resp MemoryListResponse
		if err := apiGet("/api/v1/memory/search?q="+q, &resp); err != nil {
			return err
		}
		printMemories(resp)
		return nil
	},
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a manual memory note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			ID string `json:"id"`
		}
		err := apiPost("/api/v1/memory", map[string]string{
			"text": strings.Join(args, " "),
			"kind": memoryKind,
		}, &resp)
		if err != nil {
			return err
		}
		fmt.Printf("Stored memory %s\n", resp.ID)
		return nil
	},
}

var memoryPreferencesCmd = &cobra.Command{
	Use:   "preferences",
	Short: "Show the derived preference profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		var profile struct {
			PreferredDomains []struct {
				Value string `json:"value"`
				Count int    `json:"count"`
			} `json:"preferred_domains"`
			RejectedDomains []struct {
				Value string `json:"value"`
				Count int    `json:"count"`
			} `json:"rejected_domains"`
			Topics []struct {
				Value string `json:"value"`
				Count int    `json:"count"`
			} `json:"topics"`
		}
		if err := apiGet("/api/v1/preferences", &profile); err != nil {
			return err
		}

		if len(profile.PreferredDomains) == 0 && len(profile.RejectedDomains) == 0 && len(profile.Topics) == 0 {
			fmt.Println("No preferences learned yet. Complete a research session first.")
			return nil
		}
		if len(profile.PreferredDomains) > 0 {
			fmt.Println("Preferred domains:")
			for _, d := range profile.PreferredDomains {
				fmt.Printf("  %3dx %s\n", d.Count, d.Value)
			}
		}
		if len(profile.RejectedDomains) > 0 {
			fmt.Println("Rejected domains:")
			for _, d := range profile.RejectedDomains {
				fmt.Printf("  %3dx %s\n", d.Count, d.Value)
			}
		}
		if len(profile.Topics) > 0 {
			fmt.Println("Topics:")
			for _, t := range profile.Topics {
				fmt.Printf("  %3dx %s\n", t.Count, t.Value)
			}
		}
		return nil
	},
}
