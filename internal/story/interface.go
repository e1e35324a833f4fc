package story

import "context"

//go:generate mockgen -source=interface.go -destination=../mocks/story/mock_interface.go -package=mock_story

// ImageResolver maps keyword candidates to an image reference. It never fails.
type ImageResolver interface {
	Resolve(candidates []string) string
}

// Recorder receives the setup of every story a session starts and every turn it accepts.
type Recorder interface {
	RecordStory(ctx context.Context, storyID string, setup Setup) error
	Record(ctx context.Context, storyID string, sequence int, turn Turn) error
}
