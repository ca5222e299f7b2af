package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	usageDays  int
	usageLimit int
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect memory-layer usage and costs",
	Long: `Inspect the usage log the memory layer keeps for every
operation.

Examples:
  researchctl usage totals
  researchctl usage daily --days 7
  researchctl usage costs
  researchctl usage recent --limit 10`,
}

func init() {
	usageDailyCmd.Flags().IntVar(&usageDays, "days", 30, "number of days to include")
	usageRecentCmd.Flags().IntVar(&usageLimit, "limit", 20, "number of events to show")
	usageCmd.AddCommand(usageTotalsCmd)
	usageCmd.AddCommand(usageDailyCmd)
	usageCmd.AddCommand(usageCostsCmd)
	usageCmd.AddCommand(usageRecentCmd)
}

// UsageTotals matches the server's totals representation.
type UsageTotals struct {
	TotalOperations int     `json:"total_operations"`
	TotalAdds       int     `json:"total_adds"`
	TotalSearches   int     `json:"total_searches"`
	TotalTokens     int     `json:"total_tokens"`
	TotalCost       float64 `json:"total_cost"`
	AvgLatencyMS    float64 `json:"avg_latency_ms"`
	SuccessRate     float64 `json:"success_rate"`
}

// DailyStat matches the server's daily rollup representation.
type DailyStat struct {
	Date            string  `json:"date"`
	TotalOperations int     `json:"operations"`
	TotalTokens     int     `json:"tokens"`
	TotalCost       float64 `json:"cost"`
	SuccessRate     float64 `json:"success_rate"`
}

// CostRow matches the server's cost breakdown rows.
type CostRow struct {
	Operation string  `json:"operation"`
	Count     int     `json:"count"`
	Cost      float64 `json:"cost"`
}

// UsageEvent matches the server's event representation.
type UsageEvent struct {
	Timestamp     string  `json:"timestamp"`
	OperationType string  `json:"operation_type"`
	TokensUsed    int     `json:"tokens_used"`
	EstimatedCost float64 `json:"estimated_cost"`
	LatencyMS     int     `json:"latency_ms"`
	Success       bool    `json:"success"`
}

var usageTotalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show all-time usage totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		var t UsageTotals
		if err := apiGet("/api/v1/usage/totals", &t); err != nil {
			return err
		}
		fmt.Printf("Operations:   %d (%d adds, %d searches)\n", t.TotalOperations, t.TotalAdds, t.TotalSearches)
		fmt.Printf("Tokens:       %d\n", t.TotalTokens)
		fmt.Printf("Cost:         $%.4f\n", t.TotalCost)
		fmt.Printf("Avg latency:  %.1fms\n", t.AvgLatencyMS)
		fmt.Printf("Success rate: %.1f%%\n", t.SuccessRate)
		return nil
	},
}

var usageDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show per-day usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats []DailyStat
		if err := apiGet(fmt.Sprintf("/api/v1/usage/daily?days=%d", usageDays), &stats); err != nil {
			return err
		}
		if len(stats) == 0 {
			fmt.Println("No usage recorded.")
			return nil
		}
		for _, d := range stats {
			fmt.Printf("%s  %5d ops  %8d tokens  $%.4f\n", d.Date, d.TotalOperations, d.TotalTokens, d.TotalCost)
		}
		return nil
	},
}

var usageCostsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Show cost breakdown by operation",
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows []CostRow
		if err := apiGet("/api/v1/usage/costs", &rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No usage recorded.")
			return nil
		}
		for _, r := range rows {
			fmt.Printf("%-12s %6d calls  $%.4f\n", r.Operation, r.Count, r.Cost)
		}
		return nil
	},
}

var usageRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show recent usage events",
	RunE: func(cmd *cobra.Command, args []string) error {
		var events []UsageEvent
		if err := apiGet(fmt.Sprintf("/api/v1/usage/recent?limit=%d", usageLimit), &events); err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No usage recorded.")
			return nil
		}
		for _, e := range events {
			status := "ok"
			if !e.Success {
				status = "FAILED"
			}
			fmt.Printf("%s  %-8s %6d tokens  %4dms  %s\n", e.Timestamp, e.OperationType, e.TokensUsed, e.LatencyMS, status)
		}
		return nil
	},
}
