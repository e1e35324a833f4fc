package story

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		name        string
		req         PromptRequest
		contains    []string
		notContains []string
	}{
		{
			name: "initial prompt",
			req: PromptRequest{
				Initial:       true,
				InitialPrompt: "a child in a magic city",
				Genre:         "Fantasy",
				Mood:          "Exciting",
				Context:       "ignored context",
				Choice:        "ignored choice",
			},
			contains: []string{
				"Write the beginning of a exciting, fantasy story.",
				"'a child in a magic city'",
				"3-5 sentences",
				"2-3 clear and distinct choices",
				"1. Choice 1\n2. Choice 2\n3. Choice 3\n\nIMAGE_KEYWORD: keyword1, keyword2",
			},
			notContains: []string{"ignored context", "ignored choice"},
		},
		{
			name: "continuation prompt",
			req: PromptRequest{
				Context: "The dragon \"sleeps\".",
				Choice:  "Sneak past",
			},
			contains: []string{
				"The story so far: \"The dragon \"sleeps\".\"",
				"The user chose: \"Sneak past\"",
				"'End the story'",
				"1. Choice 1\n2. Choice 2\n\nIMAGE_KEYWORD: keyword1, keyword2",
			},
			notContains: []string{"Write the beginning"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPrompt(tt.req)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestBuildPrompt_ExampleParses(t *testing.T) {
	prompt := BuildPrompt(PromptRequest{Initial: true, InitialPrompt: "x", Genre: "Comedy", Mood: "Funny"})
	_, example, found := strings.Cut(prompt, "Example output format:")
	assert.True(t, found)

	got := Parse(example)
	assert.Equal(t, []string{"Choice 1", "Choice 2", "Choice 3"}, got.Choices)
	assert.Equal(t, []string{"keyword1", "keyword2"}, got.Keywords)
	assert.Equal(t, "Story text goes here...", got.Text)
}
