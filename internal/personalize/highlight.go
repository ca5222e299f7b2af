package personalize

import (
	"fmt"
	"strings"
)

// ScoredSource is a candidate source as it moves through the pipeline:
// retrieved, optionally quality-scored, then annotated against the
// user's preference profile. Sources past the scoring budget carry no
// relevance score at all, hence the pointer.
type ScoredSource struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	Query          string `json:"query,omitempty"`
	RelevanceScore *int   `json:"relevance_score,omitempty"`
	ScoreReasoning string `json:"score_reasoning,omitempty"`
	IsPreferred    bool   `json:"is_preferred,omitempty"`
	IsRejected     bool   `json:"is_rejected,omitempty"`
	PreferenceNote string `json:"preference_note,omitempty"`
}

// Highlight annotates sources against the profile and returns a new
// slice; the input is not modified.
//
// Matching is substring containment of the profile domain in the
// source URL, not an exact host comparison, so "mit.edu" also matches
// lookalike hosts. This imprecision is deliberate: highlighting is
// cosmetic and the loose match is the established behavior.
//
// The preferred check runs first, the rejected check second, and both
// write PreferenceNote, so the rejected note wins when a URL matches
// both tables. Annotation is recomputed from scratch each call, which
// makes Highlight idempotent.
func Highlight(sources []ScoredSource, profile Profile) []ScoredSource {
	out := make([]ScoredSource, len(sources))
	copy(out, sources)

	for i := range out {
		out[i].IsPreferred = false
		out[i].IsRejected = false
		out[i].PreferenceNote = ""

		for _, d := range profile.PreferredDomains {
			if d.Value != "" && strings.Contains(out[i].URL, d.Value) {
				out[i].IsPreferred = true
				out[i].PreferenceNote = fmt.Sprintf("You've previously selected sources from %s", d.Value)
				break
			}
		}
		for _, d := range profile.RejectedDomains {
			if d.Value != "" && strings.Contains(out[i].URL, d.Value) {
				out[i].IsRejected = true
				out[i].PreferenceNote = fmt.Sprintf("You've previously rejected sources from %s", d.Value)
				break
			}
		}
	}
	return out
}
