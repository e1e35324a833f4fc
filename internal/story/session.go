package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/at-ishikawa/storyteller/internal/inference"
)

// TranscriptDelimiter separates narratives in a transcript.
const TranscriptDelimiter = "\n\n"

var (
	ErrInvalidPhase  = errors.New("action is not allowed in the current phase")
	ErrUnknownChoice = errors.New("choice is not one of the current choices")
	ErrEmptyPrompt   = errors.New("initial prompt is empty")
	ErrBusy          = errors.New("another generation is in progress")
	ErrSessionReset  = errors.New("session was reset during generation")
)

// Session drives one story from its first segment to its end.
// All methods are safe for concurrent use; at most one generation runs at a time.
type Session struct {
	generator inference.Client
	resolver  ImageResolver
	recorder  Recorder

	// inFlight is held for the whole generation so that a second request fails fast.
	inFlight sync.Mutex

	mu      sync.RWMutex
	epoch   uint64
	storyID string
	phase   Phase
	setup   Setup
	history []Turn
}

type Option func(*Session)

func WithRecorder(recorder Recorder) Option {
	return func(s *Session) {
		s.recorder = recorder
	}
}

func NewSession(generator inference.Client, resolver ImageResolver, opts ...Option) *Session {
	s := &Session{
		generator: generator,
		resolver:  resolver,
		phase:     PhaseNotStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start generates the opening segment.
func (s *Session) Start(ctx context.Context, initialPrompt, genre, mood string) (Turn, error) {
	initialPrompt = strings.TrimSpace(initialPrompt)
	if initialPrompt == "" {
		return Turn{}, ErrEmptyPrompt
	}
	if !s.inFlight.TryLock() {
		return Turn{}, ErrBusy
	}
	defer s.inFlight.Unlock()

	s.mu.RLock()
	phase, epoch := s.phase, s.epoch
	s.mu.RUnlock()
	if phase != PhaseNotStarted {
		return Turn{}, fmt.Errorf("start in %s > %w", phase, ErrInvalidPhase)
	}

	setup := Setup{Prompt: initialPrompt, Genre: genre, Mood: mood}
	turn, err := s.nextTurn(ctx, PromptRequest{
		Initial:       true,
		InitialPrompt: setup.Prompt,
		Genre:         setup.Genre,
		Mood:          setup.Mood,
	}, "")
	if err != nil {
		return Turn{}, err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return Turn{}, ErrSessionReset
	}
	s.storyID = ksuid.New().String()
	s.setup = setup
	s.history = []Turn{turn}
	s.phase = phaseAfter(turn)
	storyID, phase := s.storyID, s.phase
	s.mu.Unlock()

	slog.Default().Info("story started",
		"story", storyID,
		"genre", genre,
		"mood", mood,
		"choices", len(turn.Choices),
		"phase", phase.String())
	s.recordStory(ctx, storyID, setup)
	s.record(ctx, storyID, 1, turn)
	return turn.clone(), nil
}

// Choose continues the story with one of the current choices.
func (s *Session) Choose(ctx context.Context, choice string) (Turn, error) {
	if !s.inFlight.TryLock() {
		return Turn{}, ErrBusy
	}
	defer s.inFlight.Unlock()

	s.mu.RLock()
	phase, epoch := s.phase, s.epoch
	var last Turn
	if len(s.history) > 0 {
		last = s.history[len(s.history)-1]
	}
	s.mu.RUnlock()
	if phase != PhaseInProgress {
		return Turn{}, fmt.Errorf("choose in %s > %w", phase, ErrInvalidPhase)
	}
	if !slices.Contains(last.Choices, choice) {
		return Turn{}, fmt.Errorf("%q > %w", choice, ErrUnknownChoice)
	}

	turn, err := s.nextTurn(ctx, PromptRequest{
		Context: last.Narrative,
		Choice:  choice,
	}, choice)
	if err != nil {
		return Turn{}, err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return Turn{}, ErrSessionReset
	}
	s.history = append(s.history, turn)
	s.phase = phaseAfter(turn)
	storyID, sequence, phase := s.storyID, len(s.history), s.phase
	s.mu.Unlock()

	slog.Default().Info("story continued",
		"story", storyID,
		"sequence", sequence,
		"choice", choice,
		"choices", len(turn.Choices),
		"phase", phase.String())
	s.record(ctx, storyID, sequence, turn)
	return turn.clone(), nil
}

// Reset discards the story. A generation still in flight is ignored when it completes.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.storyID = ""
	s.phase = PhaseNotStarted
	s.setup = Setup{}
	s.history = nil
}

func (s *Session) nextTurn(ctx context.Context, req PromptRequest, choice string) (Turn, error) {
	text, err := s.generator.Generate(ctx, BuildPrompt(req))
	if err != nil {
		var generationErr *inference.GenerationError
		if !errors.As(err, &generationErr) {
			err = inference.NewGenerationError("model", err)
		}
		return Turn{}, fmt.Errorf("generator.Generate > %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return Turn{}, fmt.Errorf("generator.Generate > %w",
			inference.NewGenerationError("model", errors.New("empty response")))
	}

	response := Parse(text)
	return Turn{
		Narrative:  response.Text,
		Choices:    response.Choices,
		Keywords:   response.Keywords,
		ImageRef:   s.resolver.Resolve(response.Keywords),
		ChoiceMade: choice,
	}, nil
}

func (s *Session) recordStory(ctx context.Context, storyID string, setup Setup) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordStory(ctx, storyID, setup); err != nil {
		slog.Default().Warn("failed to record story",
			"story", storyID,
			"error", err)
	}
}

func (s *Session) record(ctx context.Context, storyID string, sequence int, turn Turn) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, storyID, sequence, turn); err != nil {
		slog.Default().Warn("failed to record story turn",
			"story", storyID,
			"sequence", sequence,
			"error", err)
	}
}

func phaseAfter(turn Turn) Phase {
	if turn.Ends() {
		return PhaseEnded
	}
	return PhaseInProgress
}

// StoryID identifies the current story; it is empty before Start succeeds.
func (s *Session) StoryID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storyID
}

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Session) Setup() Setup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setup
}

// History returns a copy of all accepted turns in order.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTurns(s.history)
}

// LastTurn returns the most recent turn, if any.
func (s *Session) LastTurn() (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return Turn{}, false
	}
	return s.history[len(s.history)-1].clone(), true
}

// CurrentChoices mirrors the choices of the most recent turn.
func (s *Session) CurrentChoices() []string {
	turn, ok := s.LastTurn()
	if !ok {
		return []string{}
	}
	return turn.Choices
}

func (s *Session) CurrentImageRef() string {
	turn, _ := s.LastTurn()
	return turn.ImageRef
}

// Transcript joins every narrative with TranscriptDelimiter.
func (s *Session) Transcript() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transcript(s.history)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	StoryID    string
	Phase      Phase
	Setup      Setup
	Turns      []Turn
	Choices    []string
	ImageRef   string
	Narrative  string
	Transcript string
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{
		StoryID:    s.storyID,
		Phase:      s.phase,
		Setup:      s.setup,
		Turns:      cloneTurns(s.history),
		Choices:    []string{},
		Transcript: transcript(s.history),
	}
	if len(s.history) > 0 {
		last := s.history[len(s.history)-1]
		snapshot.Choices = append(snapshot.Choices, last.Choices...)
		snapshot.ImageRef = last.ImageRef
		snapshot.Narrative = last.Narrative
	}
	return snapshot
}

func transcript(history []Turn) string {
	narratives := make([]string, 0, len(history))
	for _, turn := range history {
		narratives = append(narratives, turn.Narrative)
	}
	return strings.Join(narratives, TranscriptDelimiter)
}

func cloneTurns(history []Turn) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, turn := range history {
		turns = append(turns, turn.clone())
	}
	return turns
}
