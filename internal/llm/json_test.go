package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type scored struct {
		Score  int    `json:"score"`
		Reason string `json:"reason"`
	}

	tests := []struct {
		name    string
		input   string
		want    scored
		wantErr bool
	}{
		{
			name:  "plain object",
			input: `{"score": 85, "reason": "authoritative source"}`,
			want:  scored{Score: 85, Reason: "authoritative source"},
		},
		{
			name:  "json code fence",
			input: "```json\n{\"score\": 70, \"reason\": \"ok\"}\n```",
			want:  scored{Score: 70, Reason: "ok"},
		},
		{
			name:  "bare code fence",
			input: "```\n{\"score\": 60, \"reason\": \"meh\"}\n```",
			want:  scored{Score: 60, Reason: "meh"},
		},
		{
			name:  "prose around object",
			input: "Here is my assessment:\n{\"score\": 90, \"reason\": \"great\"}\nHope that helps!",
			want:  scored{Score: 90, Reason: "great"},
		},
		{
			name:    "no json at all",
			input:   "I cannot score this source.",
			wantErr: true,
		},
		{
			name:    "unterminated object",
			input:   `{"score": 85, "reason": "cut off`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got scored
			err := DecodeJSON(tt.input, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSONArray(t *testing.T) {
	var queries []string
	input := "```json\n[\"solar storage 2026\", \"grid battery costs\"]\n```"
	require.NoError(t, DecodeJSON(input, &queries))
	assert.Equal(t, []string{"solar storage 2026", "grid battery costs"}, queries)
}

func TestUsageFromGenerationInfo(t *testing.T) {
	usage := usageFromGenerationInfo(map[string]any{
		"PromptTokens":     120,
		"CompletionTokens": 30,
		"TotalTokens":      150,
	})
	assert.Equal(t, Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150}, usage)

	assert.Equal(t, Usage{}, usageFromGenerationInfo(nil))
}
