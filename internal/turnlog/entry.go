package turnlog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/at-ishikawa/storyteller/internal/story"
)

// Entry is one row of story_turns.
type Entry struct {
	ID         int64      `db:"id"`
	StoryID    string     `db:"story_id"`
	Sequence   int        `db:"sequence"`
	ChoiceMade string     `db:"choice_made"`
	Narrative  string     `db:"narrative"`
	Choices    StringList `db:"choices"`
	Keywords   StringList `db:"keywords"`
	ImageRef   string     `db:"image_ref"`
	CreatedAt  time.Time  `db:"created_at"`
}

func newEntry(storyID string, sequence int, turn story.Turn) Entry {
	return Entry{
		StoryID:    storyID,
		Sequence:   sequence,
		ChoiceMade: turn.ChoiceMade,
		Narrative:  turn.Narrative,
		Choices:    StringList(turn.Choices),
		Keywords:   StringList(turn.Keywords),
		ImageRef:   turn.ImageRef,
	}
}

// Turn converts the row back into a story turn.
func (e Entry) Turn() story.Turn {
	return story.Turn{
		Narrative:  e.Narrative,
		Choices:    append([]string{}, e.Choices...),
		Keywords:   append([]string{}, e.Keywords...),
		ImageRef:   e.ImageRef,
		ChoiceMade: e.ChoiceMade,
	}
}

// Story is one row of stories.
type Story struct {
	StoryID   string    `db:"story_id"`
	Prompt    string    `db:"prompt"`
	Genre     string    `db:"genre"`
	Mood      string    `db:"mood"`
	CreatedAt time.Time `db:"created_at"`
}

func newStory(storyID string, setup story.Setup) Story {
	return Story{
		StoryID: storyID,
		Prompt:  setup.Prompt,
		Genre:   setup.Genre,
		Mood:    setup.Mood,
	}
}

func (s Story) Setup() story.Setup {
	return story.Setup{Prompt: s.Prompt, Genre: s.Genre, Mood: s.Mood}
}

// StringList is stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("json.Marshal() > %w", err)
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", src)
	}

	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("json.Unmarshal(%s) > %w", b, err)
	}
	if list == nil {
		list = []string{}
	}
	*l = list
	return nil
}
