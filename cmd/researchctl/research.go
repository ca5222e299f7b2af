package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	researchNumQueries int
	researchFocus      string
	researchAIMode     string
	researchPerQuery   int
	researchSelectTop  int
	researchComplete   bool
	reportDepth        string
)

var researchCmd = &cobra.Command{
	Use:   "research <topic>",
	Short: "Run a research session",
	Long: `Run a research session: generate queries, search the web,
filter by quality, and print the personalized source list.

With --complete the top sources are auto-selected and the session is
recorded in memory; without it the session stays open.

Examples:
  researchctl research "solar panel efficiency"
  researchctl research "grid storage" --focus academic --queries 5
  researchctl research "heat pumps" --complete --select 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

var reportCmd = &cobra.Command{
	Use:   "report <topic>",
	Short: "Generate an AI research report",
	Long: `Generate a structured research report on a topic without a
web search, rendered as markdown.

Examples:
  researchctl report "battery recycling"
  researchctl report "battery recycling" --depth deep`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReport,
}

func init() {
	researchCmd.Flags().IntVar(&researchNumQueries, "queries", 7, "number of search queries to generate")
	researchCmd.Flags().StringVar(&researchFocus, "focus", "balanced", "query focus (balanced, academic, practical, recent, technical, comprehensive)")
	researchCmd.Flags().StringVar(&researchAIMode, "ai-mode", "basic", "AI enhancement mode")
	researchCmd.Flags().IntVar(&researchPerQuery, "per-query", 10, "results per query")
	researchCmd.Flags().IntVar(&researchSelectTop, "select", 5, "sources to auto-select with --complete")
	researchCmd.Flags().BoolVar(&researchComplete, "complete", false, "auto-select top sources and record the session")
	reportCmd.Flags().StringVar(&reportDepth, "depth", "comprehensive", "report depth (quick, comprehensive, deep)")
	rootCmd.AddCommand(reportCmd)
}

// ScoredSource matches the server's source representation.
type ScoredSource struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	Query          string `json:"query,omitempty"`
	RelevanceScore *int   `json:"relevance_score,omitempty"`
	ScoreReasoning string `json:"score_reasoning,omitempty"`
	IsPreferred    bool   `json:"is_preferred"`
	IsRejected     bool   `json:"is_rejected"`
	PreferenceNote string `json:"preference_note,omitempty"`
}

type queriesResponse struct {
	SessionID int64    `json:"session_id"`
	Queries   []string `json:"queries"`
	Analysis  string   `json:"analysis,omitempty"`
}

type searchResponse struct {
	Sources    []ScoredSource `json:"sources"`
	TotalFound int            `json:"total_found"`
}

type completeResponse struct {
	MemoryID string `json:"memory_id,omitempty"`
	Feedback struct {
		Message  string   `json:"message"`
		Tips     []string `json:"tips"`
		Insights []string `json:"insights"`
	} `json:"feedback"`
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	var queries queriesResponse
	err := apiPost("/api/v1/research/queries", map[string]any{
		"topic":       topic,
		"num_queries": researchNumQueries,
		"query_focus": researchFocus,
		"ai_mode":     researchAIMode,
	}, &queries)
	if err != nil {
		return err
	}

	fmt.Printf("Session #%d: %s\n\nQueries:\n", queries.SessionID, topic)
	for i, q := range queries.Queries {
		fmt.Printf("  %d. %s\n", i+1, q)
	}
	if queries.Analysis != "" {
		fmt.Printf("\n%s\n", queries.Analysis)
	}

	var results searchResponse
	err = apiPost("/api/v1/research/search", map[string]any{
		"session_id":        queries.SessionID,
		"topic":             topic,
		"queries":           queries.Queries,
		"results_per_query": researchPerQuery,
	}, &results)
	if err != nil {
		return err
	}

	fmt.Printf("\nFound %d results, %d passed quality filtering:\n\n", results.TotalFound, len(results.Sources))
	for i, src := range results.Sources {
		marker := " "
		if src.IsPreferred {
			marker = "*"
		}
		if src.IsRejected {
			marker = "!"
		}
		score := " --"
		if src.RelevanceScore != nil {
			score = fmt.Sprintf("%3d", *src.RelevanceScore)
		}
		fmt.Printf("%s %3d. [%s] %s\n       %s\n", marker, i+1, score, src.Title, src.URL)
		if src.PreferenceNote != "" {
			fmt.Printf("       %s\n", src.PreferenceNote)
		}
	}

	if !researchComplete {
		fmt.Printf("\nSession #%d left open. Re-run with --complete to record it.\n", queries.SessionID)
		return nil
	}

	sources := make([]map[string]any, 0, len(results.Sources))
	for i, src := range results.Sources {
		score := 0
		if src.RelevanceScore != nil {
			score = *src.RelevanceScore
		}
		sources = append(sources, map[string]any{
			"url":             src.URL,
			"title":           src.Title,
			"query":           src.Query,
			"ai_score":        score,
			"score_reasoning": src.ScoreReasoning,
			"selected":        i < researchSelectTop,
		})
	}

	var done completeResponse
	err = apiPost("/api/v1/research/complete", map[string]any{
		"session_id":  queries.SessionID,
		"topic":       topic,
		"ai_mode":     researchAIMode,
		"query_focus": researchFocus,
		"queries":     queries.Queries,
		"sources":     sources,
	}, &done)
	if err != nil {
		return err
	}

	fmt.Printf("\nSession recorded")
	if done.MemoryID != "" {
		fmt.Printf(" (memory %s)", done.MemoryID)
	}
	fmt.Println()
	for _, msg := range done.Feedback.Insights {
		fmt.Printf("  %s\n", msg)
	}
	for _, tip := range done.Feedback.Tips {
		fmt.Printf("  %s\n", tip)
	}
	return nil
}

// reportContent mirrors the server's generated-report JSON.
type reportContent struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Error    string `json:"error,omitempty"`
	Sections []struct {
		Heading   string   `json:"heading"`
		Content   string   `json:"content"`
		KeyPoints []string `json:"key_points,omitempty"`
	} `json:"sections"`
	RecommendedSources []struct {
		Title       string `json:"title"`
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"recommended_sources,omitempty"`
	NextSteps []string `json:"next_steps,omitempty"`
}

func runReport(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")

	var content reportContent
	err := apiPost("/api/v1/research/generate", map[string]string{
		"topic": topic,
		"depth": reportDepth,
	}, &content)
	if err != nil {
		return err
	}
	if content.Error != "" {
		return fmt.Errorf("report generation failed: %s", content.Error)
	}

	fmt.Printf("# %s\n\n%s\n", content.Title, content.Summary)
	for _, sec := range content.Sections {
		fmt.Printf("\n## %s\n\n%s\n", sec.Heading, sec.Content)
		for _, kp := range sec.KeyPoints {
			fmt.Printf("- %s\n", kp)
		}
	}
	if len(content.RecommendedSources) > 0 {
		fmt.Printf("\n## Recommended Sources\n\n")
		for i, src := range content.RecommendedSources {
			fmt.Printf("%d. %s (%s): %s\n", i+1, src.Title, src.Type, src.Description)
		}
	}
	for i, step := range content.NextSteps {
		if i == 0 {
			fmt.Printf("\n## Next Steps\n\n")
		}
		fmt.Printf("- %s\n", step)
	}
	return nil
}
