package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/at-ishikawa/storyteller/internal/imagery"
	"github.com/at-ishikawa/storyteller/internal/inference"
	"github.com/at-ishikawa/storyteller/internal/story"
)

var errEnd = errors.New("end")

const (
	commandQuit  = "q"
	commandReset = "r"
)

// StoryCLI plays a story session on a terminal.
type StoryCLI struct {
	session      *story.Session
	preset       story.Setup
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	bold         *color.Color
	italic       *color.Color
	faint        *color.Color
	warning      *color.Color
}

// NewStoryCLI creates a CLI reading from stdin. Non-empty fields of preset are used for the first story
// instead of asking the reader.
func NewStoryCLI(session *story.Session, preset story.Setup) *StoryCLI {
	return newStoryCLI(session, preset, os.Stdin, os.Stdout)
}

func newStoryCLI(session *story.Session, preset story.Setup, stdin io.Reader, stdout io.Writer) *StoryCLI {
	return &StoryCLI{
		session:      session,
		preset:       preset,
		stdinReader:  bufio.NewReader(stdin),
		stdoutWriter: stdout,
		bold:         color.New(color.Bold),
		italic:       color.New(color.Italic),
		faint:        color.New(color.Faint),
		warning:      color.New(color.FgYellow),
	}
}

func (cli *StoryCLI) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := cli.Step(ctx); err != nil {
				if !errors.Is(err, errEnd) {
					errCh <- err
				}
				return
			}
		}
	}()
	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(cli.stdoutWriter, "\nReceived interrupt signal, exiting...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error: %w", err)
		}
	}
	return nil
}

// Step handles one reader interaction for the current phase.
func (cli *StoryCLI) Step(ctx context.Context) error {
	switch cli.session.Phase() {
	case story.PhaseNotStarted:
		return cli.start(ctx)
	case story.PhaseInProgress:
		return cli.choose(ctx)
	default:
		return cli.end()
	}
}

func (cli *StoryCLI) start(ctx context.Context) error {
	preset := cli.preset
	cli.preset = story.Setup{}

	prompt := preset.Prompt
	if prompt == "" {
		_, _ = cli.bold.Fprint(cli.stdoutWriter, "How does your story begin? ")
		input, err := cli.readLine()
		if err != nil {
			return err
		}
		if input == commandQuit {
			return errEnd
		}
		prompt = input
	}
	if strings.TrimSpace(prompt) == "" {
		_, _ = cli.warning.Fprintln(cli.stdoutWriter, "Please write something to start the story.")
		return nil
	}

	genre, err := cli.selectOption("Genre", story.Genres, preset.Genre)
	if err != nil {
		return err
	}
	mood, err := cli.selectOption("Mood", story.Moods, preset.Mood)
	if err != nil {
		return err
	}

	_, _ = cli.faint.Fprintln(cli.stdoutWriter, "Writing your story...")
	turn, err := cli.session.Start(ctx, prompt, genre, mood)
	if err != nil {
		return cli.handleError(err)
	}
	cli.printTurn(turn)
	return nil
}

func (cli *StoryCLI) choose(ctx context.Context) error {
	choices := cli.session.CurrentChoices()
	_, _ = cli.bold.Fprintf(cli.stdoutWriter, "What do you do? [1-%d, %s: restart, %s: quit] ", len(choices), commandReset, commandQuit)
	input, err := cli.readLine()
	if err != nil {
		return err
	}

	switch strings.ToLower(input) {
	case commandQuit:
		return errEnd
	case commandReset:
		cli.session.Reset()
		_, _ = fmt.Fprintln(cli.stdoutWriter, "Starting over.")
		return nil
	}

	choice, ok := resolveChoice(input, choices)
	if !ok {
		_, _ = cli.warning.Fprintln(cli.stdoutWriter, "Please choose one of the options above.")
		return nil
	}

	_, _ = cli.faint.Fprintln(cli.stdoutWriter, "Writing your story...")
	turn, err := cli.session.Choose(ctx, choice)
	if err != nil {
		return cli.handleError(err)
	}
	cli.printTurn(turn)
	return nil
}

func (cli *StoryCLI) end() error {
	_, _ = cli.bold.Fprint(cli.stdoutWriter, "Start a new story? [y/N] ")
	input, err := cli.readLine()
	if err != nil {
		return err
	}
	if strings.EqualFold(input, "y") || strings.EqualFold(input, "yes") {
		cli.session.Reset()
		return nil
	}
	return errEnd
}

// handleError reports failures the reader can retry and returns the rest.
func (cli *StoryCLI) handleError(err error) error {
	switch {
	case errors.Is(err, inference.ErrGeneration):
		_, _ = cli.warning.Fprintf(cli.stdoutWriter, "The story could not be generated: %v\nPlease try again.\n", err)
		return nil
	case errors.Is(err, story.ErrEmptyPrompt):
		_, _ = cli.warning.Fprintln(cli.stdoutWriter, "Please write something to start the story.")
		return nil
	case errors.Is(err, story.ErrUnknownChoice):
		_, _ = cli.warning.Fprintln(cli.stdoutWriter, "Please choose one of the options above.")
		return nil
	case errors.Is(err, context.Canceled):
		return errEnd
	default:
		return err
	}
}

func (cli *StoryCLI) printTurn(turn story.Turn) {
	_, _ = fmt.Fprintln(cli.stdoutWriter)
	if turn.ImageRef != "" {
		label := "Scene"
		if !imagery.IsLocal(turn.ImageRef) {
			label = "Scene (no local image)"
		}
		_, _ = cli.faint.Fprintf(cli.stdoutWriter, "[%s: %s]\n", label, turn.ImageRef)
	}
	_, _ = fmt.Fprintf(cli.stdoutWriter, "%s\n\n", turn.Narrative)

	if turn.Ends() {
		_, _ = cli.italic.Fprintln(cli.stdoutWriter, "The story ends here.")
		return
	}
	for i, choice := range turn.Choices {
		_, _ = fmt.Fprintf(cli.stdoutWriter, "  %d. %s\n", i+1, choice)
	}
	_, _ = fmt.Fprintln(cli.stdoutWriter)
}

func (cli *StoryCLI) selectOption(label string, options []string, preset string) (string, error) {
	if preset != "" {
		return preset, nil
	}

	_, _ = cli.bold.Fprintf(cli.stdoutWriter, "%s:\n", label)
	for i, option := range options {
		_, _ = fmt.Fprintf(cli.stdoutWriter, "  %d. %s\n", i+1, option)
	}
	_, _ = fmt.Fprintf(cli.stdoutWriter, "Choose a number or type your own [1]: ")

	input, err := cli.readLine()
	if err != nil {
		return "", err
	}
	if input == "" {
		return options[0], nil
	}
	if choice, ok := resolveChoice(input, options); ok {
		return choice, nil
	}
	return input, nil
}

// readLine returns errEnd once stdin is exhausted.
func (cli *StoryCLI) readLine() (string, error) {
	line, err := cli.stdinReader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errEnd
		}
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// resolveChoice accepts a 1-based number or a label, ignoring case.
func resolveChoice(input string, choices []string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(choices) {
			return "", false
		}
		return choices[n-1], true
	}
	for _, choice := range choices {
		if strings.EqualFold(choice, input) {
			return choice, true
		}
	}
	return "", false
}
