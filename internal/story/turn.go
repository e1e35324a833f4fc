package story

// Phase is the lifecycle state of a Session.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInProgress:
		return "in_progress"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase with its String form in JSON and YAML.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Turn is one generated story segment.
type Turn struct {
	Narrative  string   `json:"narrative" yaml:"narrative"`
	Choices    []string `json:"choices" yaml:"choices"`
	Keywords   []string `json:"keywords" yaml:"keywords"`
	ImageRef   string   `json:"image_ref" yaml:"image_ref"`
	ChoiceMade string   `json:"choice_made,omitempty" yaml:"choice_made,omitempty"`
}

// Ends reports whether the turn offers no way forward.
func (t Turn) Ends() bool {
	return len(t.Choices) == 0
}

func (t Turn) clone() Turn {
	t.Choices = append([]string{}, t.Choices...)
	t.Keywords = append([]string{}, t.Keywords...)
	return t
}

// Setup is what the reader chose when starting a story.
type Setup struct {
	Prompt string `json:"prompt" yaml:"prompt"`
	Genre  string `json:"genre" yaml:"genre"`
	Mood   string `json:"mood" yaml:"mood"`
}

// Genres and Moods are the options offered to the reader by default.
var (
	Genres = []string{"Fantasy", "Mystery", "Sci-Fi", "Comedy", "Adventure"}
	Moods  = []string{"Exciting", "Scary", "Funny", "Thought-provoking", "Calm"}
)
