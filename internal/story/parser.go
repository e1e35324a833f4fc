package story

import (
	"regexp"
	"strings"
)

var (
	keywordPattern = regexp.MustCompile(`(?is)` + regexp.QuoteMeta(KeywordMarker) + `\s*(.*)`)
	choicePattern  = regexp.MustCompile(`^\d+\.\s+(.+)$`)
)

// Response is the structured form of one model reply.
type Response struct {
	Text     string
	Choices  []string
	Keywords []string
}

// Parse extracts narrative text, numbered choices and image keywords from a model reply.
// It never fails: missing parts come back empty and the text keeps whatever is left.
func Parse(raw string) Response {
	content := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))

	body := content
	keywords := []string{}
	if loc := keywordPattern.FindStringSubmatchIndex(content); loc != nil {
		keywords = splitKeywords(content[loc[2]:loc[3]])
		body = strings.TrimSpace(content[:loc[0]])
	}

	choices := []string{}
	var rest []string
	for _, line := range strings.Split(body, "\n") {
		if match := choicePattern.FindStringSubmatch(strings.TrimSpace(line)); match != nil {
			if label := strings.TrimSpace(match[1]); label != "" {
				choices = append(choices, label)
				continue
			}
		}
		rest = append(rest, line)
	}
	if len(choices) == 0 {
		return Response{
			Text:     body,
			Choices:  choices,
			Keywords: keywords,
		}
	}

	return Response{
		Text:     strings.TrimSpace(strings.Join(rest, "\n")),
		Choices:  choices,
		Keywords: keywords,
	}
}

func splitKeywords(payload string) []string {
	keywords := []string{}
	for _, candidate := range strings.Split(strings.TrimSpace(payload), ",") {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			keywords = append(keywords, candidate)
		}
	}
	return keywords
}
