// Package personalize derives user preferences from semantic memory
// and applies them to candidate sources.
//
// Everything here is best-effort: a profile that cannot be computed is
// a zero profile, and an unannotated source list is still a valid
// source list. Nothing in this package blocks the research flow.
package personalize

import (
	"sort"

	"github.com/ferrolab/researchd/internal/memory"
)

// topN caps the domain and topic tables. AI modes stay untruncated;
// there are only a handful of modes.
const topN = 10

// Count pairs a value with how often it was observed.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile is the derived preference view of one user's memories. It is
// recomputed on every request, never persisted.
type Profile struct {
	PreferredDomains []Count `json:"preferred_domains"`
	RejectedDomains  []Count `json:"rejected_domains"`
	AIModes          []Count `json:"ai_modes"`
	Topics           []Count `json:"topics"`
}

// IsZero reports whether the profile carries no signal at all.
func (p Profile) IsZero() bool {
	return len(p.PreferredDomains) == 0 && len(p.RejectedDomains) == 0 &&
		len(p.AIModes) == 0 && len(p.Topics) == 0
}

// counter accumulates counts while remembering first-seen order, so
// ties sort stably to input order.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) inc(value string) {
	if value == "" {
		return
	}
	if _, seen := c.counts[value]; !seen {
		c.order = append(c.order, value)
	}
	c.counts[value]++
}

// ranked returns the counts sorted descending, ties stable to
// first-seen order, truncated to limit (0 means no truncation).
func (c *counter) ranked(limit int) []Count {
	if len(c.order) == 0 {
		return nil
	}
	out := make([]Count, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, Count{Value: v, Count: c.counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ExtractProfile folds memory records into ranked preference tables.
// One pass, pure, order of input irrelevant except for tie-breaking.
//
// Source preferences count by domain: selected into the preferred
// table, rejected into the rejected table. Other actions (such as
// "considered") contribute to neither table. Research sessions count
// AI modes and topics. Records with missing fields are skipped, never
// an error.
func ExtractProfile(records []memory.Record) Profile {
	preferred := newCounter()
	rejected := newCounter()
	modes := newCounter()
	topics := newCounter()

	for _, rec := range records {
		switch rec.Meta.Kind {
		case memory.KindSourcePreference:
			switch rec.Meta.Action {
			case memory.ActionSelected:
				preferred.inc(rec.Meta.Domain)
			case memory.ActionRejected:
				rejected.inc(rec.Meta.Domain)
			}
		case memory.KindResearchSession:
			modes.inc(rec.Meta.AIMode)
			topics.inc(rec.Meta.Topic)
		}
	}

	return Profile{
		PreferredDomains: preferred.ranked(topN),
		RejectedDomains:  rejected.ranked(topN),
		AIModes:          modes.ranked(0),
		Topics:           topics.ranked(topN),
	}
}
