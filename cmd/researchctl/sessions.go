package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect research history",
	Long: `Inspect past research sessions.

Examples:
  researchctl sessions list
  researchctl sessions show 12
  researchctl sessions stats
  researchctl sessions search solar`,
}

func init() {
	sessionsListCmd.Flags().IntVar(&sessionsLimit, "limit", 10, "number of sessions to show")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsStatsCmd)
	sessionsCmd.AddCommand(sessionsSearchCmd)
}

// SessionSummary matches the server's session list rows.
type SessionSummary struct {
	ID            int64  `json:"id"`
	Topic         string `json:"topic"`
	AIMode        string `json:"ai_mode"`
	Completed     bool   `json:"completed"`
	Cancelled     bool   `json:"cancelled"`
	QueryCount    int    `json:"query_count"`
	SourceCount   int    `json:"source_count"`
	SelectedCount int    `json:"selected_count"`
}

func sessionState(s SessionSummary) string {
	switch {
	case s.Cancelled:
		return "cancelled"
	case s.Completed:
		return "completed"
	default:
		return "open"
	}
}

func printSessions(sessions []SessionSummary) {
	for _, s := range sessions {
		fmt.Printf("%4d  %-40s %-9s %d queries, %d/%d sources selected\n",
			s.ID, s.Topic, sessionState(s), s.QueryCount, s.SelectedCount, s.SourceCount)
	}
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		var sessions []SessionSummary
		if err := apiGet(fmt.Sprintf("/api/v1/sessions?limit=%d", sessionsLimit), &sessions); err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet.")
			return nil
		}
		printSessions(sessions)
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session with its queries and sources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %q", args[0])
		}

		var detail struct {
			Session struct {
				Topic     string `json:"topic"`
				AIMode    string `json:"ai_mode"`
				Completed bool   `json:"completed"`
			} `json:"session"`
			Queries []struct {
				Text     string `json:"query_text"`
				Selected bool   `json:"selected"`
			} `json:"queries"`
			Sources []struct {
				URL      string `json:"url"`
				Title    string `json:"title"`
				AIScore  int    `json:"ai_score"`
				Selected bool   `json:"selected"`
			} `json:"sources"`
		}
		if err := apiGet(fmt.Sprintf("/api/v1/sessions/%d", id), &detail); err != nil {
			return err
		}

		fmt.Printf("Topic: %s (ai_mode=%s, completed=%v)\n", detail.Session.Topic, detail.Session.AIMode, detail.Session.Completed)
		fmt.Println("\nQueries:")
		for _, q := range detail.Queries {
			marker := " "
			if q.Selected {
				marker = "x"
			}
			fmt.Printf("  [%s] %s\n", marker, q.Text)
		}
		fmt.Println("\nSources:")
		for _, s := range detail.Sources {
			marker := " "
			if s.Selected {
				marker = "x"
			}
			fmt.Printf("  [%s] (%3d) %s\n        %s\n", marker, s.AIScore, s.Title, s.URL)
		}
		return nil
	},
}

var sessionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show overall research statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats struct {
			TotalSessions     int `json:"total_sessions"`
			CompletedSessions int `json:"completed_sessions"`
			TotalSources      int `json:"total_sources"`
			SelectedSources   int `json:"selected_sources"`
			TopTopics         []struct {
				Value string `json:"value"`
				Count int    `json:"count"`
			} `json:"top_topics"`
		}
		if err := apiGet("/api/v1/stats", &stats); err != nil {
			return err
		}

		fmt.Printf("Sessions: %d (%d completed)\n", stats.TotalSessions, stats.CompletedSessions)
		fmt.Printf("Sources:  %d found, %d selected\n", stats.TotalSources, stats.SelectedSources)
		if len(stats.TopTopics) > 0 {
			fmt.Println("Top topics:")
			for _, t := range stats.TopTopics {
				fmt.Printf("  %3dx %s\n", t.Count, t.Value)
			}
		}
		return nil
	},
}

var sessionsSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search session history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := url.QueryEscape(args[0])
		var sessions []SessionSummary
		if err := apiGet("/api/v1/history/search?q="+term, &sessions); err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No matching sessions.")
			return nil
		}
		printSessions(sessions)
		return nil
	},
}
