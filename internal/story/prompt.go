package story

import (
	"fmt"
	"strings"
)

// KeywordMarker prefixes the trailing line that carries the image keywords.
const KeywordMarker = "IMAGE_KEYWORD:"

// PromptRequest carries everything needed to build one model prompt.
// Context and Choice are ignored for the initial prompt.
type PromptRequest struct {
	Context       string
	Choice        string
	Initial       bool
	InitialPrompt string
	Genre         string
	Mood          string
}

const initialPromptFormat = `Write the beginning of a %s, %s story. The story starts with: '%s'. ` +
	`Keep it concise, around 3-5 sentences. ` +
	`Then, suggest 2-3 clear and distinct choices for the next step. ` +
	`At the very end, provide a single, short, comma-separated image keyword phrase ` +
	`that best describes the scene, like: 'mysterious forest, ancient tree' or 'futuristic city, flying cars'.
Example output format:

Story text goes here...

1. Choice 1
2. Choice 2
3. Choice 3

` + KeywordMarker + ` keyword1, keyword2`

const continuationPromptFormat = `The story so far: "%s"

The user chose: "%s"

Continue the story based on the choice. Keep the new segment concise, around 3-5 sentences. ` +
	`Then, suggest 2-3 clear and distinct choices for the next step. ` +
	`If the story feels like it's reaching a natural conclusion, you can suggest fewer choices (1 or 2) or a choice to 'End the story'. ` +
	`At the very end, provide a single, short, comma-separated image keyword phrase ` +
	`that best describes the new scene, like: 'dark cave, flickering light' or 'hero's triumph, grand celebration'.
Example output format:

Story text goes here...

1. Choice 1
2. Choice 2

` + KeywordMarker + ` keyword1, keyword2`

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(req PromptRequest) string {
	if req.Initial {
		return fmt.Sprintf(initialPromptFormat,
			strings.ToLower(req.Mood),
			strings.ToLower(req.Genre),
			req.InitialPrompt,
		)
	}
	return fmt.Sprintf(continuationPromptFormat, req.Context, req.Choice)
}
