package assistant

import (
	"context"
	"fmt"
)

// Workflow actions accepted by InteractiveFeedback.
const (
	ActionQueryGeneration = "query_generation"
	ActionSourceSelection = "source_selection"
	ActionCompletion      = "completion"
)

// FeedbackData carries the workflow state the feedback reacts to.
type FeedbackData struct {
	AIMode          string `json:"ai_mode,omitempty"`
	NumQueries      int    `json:"num_queries,omitempty"`
	Selected        int    `json:"selected,omitempty"`
	Total           int    `json:"total,omitempty"`
	PreferredCount  int    `json:"preferred_count,omitempty"`
	TotalSources    int    `json:"total_sources,omitempty"`
	SelectedSources int    `json:"selected_sources,omitempty"`
}

// Feedback is real-time guidance for one workflow step.
type Feedback struct {
	Message  string   `json:"message"`
	Tips     []string `json:"tips"`
	Insights []string `json:"insights"`
}

// InteractiveFeedback reacts to a workflow action with tips and
// insights. Unknown actions return empty feedback.
func (s *Service) InteractiveFeedback(ctx context.Context, userID, action string, data FeedbackData) Feedback {
	feedback := Feedback{Tips: []string{}, Insights: []string{}}

	switch action {
	case ActionQueryGeneration:
		if data.AIMode == "none" {
			feedback.Tips = append(feedback.Tips, "Tip: Try 'Basic' AI mode for smarter queries (costs ~$0.0003)")
		}
		if data.NumQueries > 0 && data.NumQueries < 5 {
			feedback.Tips = append(feedback.Tips, "More queries = more diverse sources. Consider 7-10 queries!")
		}

	case ActionSourceSelection:
		switch {
		case data.Selected == 0:
			feedback.Message = "No sources selected yet. Click checkboxes to select sources!"
		case data.Selected < 5:
			feedback.Message = fmt.Sprintf("You've selected %d sources. More sources = more comprehensive research!", data.Selected)
		default:
			feedback.Message = fmt.Sprintf("Great selection! %d sources should provide good coverage.", data.Selected)
		}
		if data.PreferredCount > 0 {
			feedback.Insights = append(feedback.Insights,
				fmt.Sprintf("%d sources from your preferred domains!", data.PreferredCount))
		}

	case ActionCompletion:
		feedback.Insights = append(feedback.Insights, s.CompletionSummary(ctx, userID, SessionOutcome{
			TotalSources:    data.TotalSources,
			SelectedSources: data.SelectedSources,
		})...)
		if next := s.SuggestNextResearch(ctx, userID); next != "" {
			feedback.Tips = append(feedback.Tips, "Next research idea: "+next)
		}
	}

	return feedback
}
