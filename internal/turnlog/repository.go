package turnlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/storyteller/internal/story"
)

//go:generate mockgen -source=repository.go -destination=../mocks/turnlog/mock_repository.go -package=mock_turnlog

// Repository stores the audit trail of accepted story turns.
type Repository interface {
	RecordStory(ctx context.Context, storyID string, setup story.Setup) error
	Record(ctx context.Context, storyID string, sequence int, turn story.Turn) error
	FindStory(ctx context.Context, storyID string) (Story, error)
	FindByStory(ctx context.Context, storyID string) ([]Entry, error)
}

// ErrStoryNotFound is returned by FindStory for stories recorded before their setup was stored.
var ErrStoryNotFound = errors.New("story not found")

// DBRepository implements Repository using MySQL.
type DBRepository struct {
	db *sqlx.DB
}

var (
	_ Repository     = (*DBRepository)(nil)
	_ story.Recorder = (*DBRepository)(nil)
)

func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{db: db}
}

// RecordStory inserts the setup a story was started with.
func (r *DBRepository) RecordStory(ctx context.Context, storyID string, setup story.Setup) error {
	if _, err := r.db.NamedExecContext(ctx,
		"INSERT INTO stories (story_id, prompt, genre, mood) VALUES (:story_id, :prompt, :genre, :mood)",
		newStory(storyID, setup),
	); err != nil {
		return fmt.Errorf("insert story: %w", err)
	}
	return nil
}

// Record inserts one turn.
func (r *DBRepository) Record(ctx context.Context, storyID string, sequence int, turn story.Turn) error {
	entry := newEntry(storyID, sequence, turn)
	if _, err := r.db.NamedExecContext(ctx,
		"INSERT INTO story_turns (story_id, sequence, choice_made, narrative, choices, keywords, image_ref) "+
			"VALUES (:story_id, :sequence, :choice_made, :narrative, :choices, :keywords, :image_ref)",
		entry,
	); err != nil {
		return fmt.Errorf("insert story turn: %w", err)
	}
	return nil
}

// FindByStory returns the turns of one story in order.
func (r *DBRepository) FindByStory(ctx context.Context, storyID string) ([]Entry, error) {
	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries,
		"SELECT * FROM story_turns WHERE story_id = ? ORDER BY sequence",
		storyID,
	); err != nil {
		return nil, fmt.Errorf("load story turns: %w", err)
	}
	return entries, nil
}

// FindStory returns the setup of one story.
func (r *DBRepository) FindStory(ctx context.Context, storyID string) (Story, error) {
	var row Story
	if err := r.db.GetContext(ctx, &row,
		"SELECT * FROM stories WHERE story_id = ?",
		storyID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Story{}, fmt.Errorf("%s: %w", storyID, ErrStoryNotFound)
		}
		return Story{}, fmt.Errorf("load story: %w", err)
	}
	return row, nil
}
