package server

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/at-ishikawa/storyteller/internal/export"
	"github.com/at-ishikawa/storyteller/internal/imagery"
	"github.com/at-ishikawa/storyteller/internal/inference"
	"github.com/at-ishikawa/storyteller/internal/story"
)

const imagesPath = "/images"

type sessionView struct {
	ID         string       `json:"id"`
	StoryID    string       `json:"story_id,omitempty"`
	Phase      story.Phase  `json:"phase"`
	Setup      story.Setup  `json:"setup"`
	Narrative  string       `json:"narrative"`
	Choices    []string     `json:"choices"`
	ImageRef   string       `json:"image_ref"`
	ImageURL   string       `json:"image_url"`
	Transcript string       `json:"transcript"`
	Turns      []story.Turn `json:"turns"`
}

type startReq struct {
	Prompt string `json:"prompt"`
	Genre  string `json:"genre"`
	Mood   string `json:"mood"`
}

type chooseReq struct {
	Choice string `json:"choice"`
}

func newSessionView(id string, snapshot story.Snapshot) sessionView {
	return sessionView{
		ID:         id,
		StoryID:    snapshot.StoryID,
		Phase:      snapshot.Phase,
		Setup:      snapshot.Setup,
		Narrative:  snapshot.Narrative,
		Choices:    snapshot.Choices,
		ImageRef:   snapshot.ImageRef,
		ImageURL:   imageURL(snapshot.ImageRef),
		Transcript: snapshot.Transcript,
		Turns:      snapshot.Turns,
	}
}

func imageURL(ref string) string {
	if ref == "" || !imagery.IsLocal(ref) {
		return ref
	}
	segments := strings.Split(ref, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return imagesPath + "/" + strings.Join(segments, "/")
}

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "storyteller",
		"status":  "ok",
	})
}

func (s *Server) handleGetOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{
		"genres": story.Genres,
		"moods":  story.Moods,
	})
}

func (s *Server) handlePostSession(c echo.Context) error {
	var opts []story.Option
	if s.options.Recorder != nil {
		opts = append(opts, story.WithRecorder(s.options.Recorder))
	}
	session := story.NewSession(s.generator, s.resolver, opts...)
	id := s.sessions.add(session)
	return c.JSON(http.StatusCreated, newSessionView(id, session.Snapshot()))
}

func (s *Server) handleGetSession(c echo.Context) error {
	id, session, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSessionView(id, session.Snapshot()))
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	session, ok := s.sessions.remove(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	session.Reset()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handlePostStart(c echo.Context) error {
	id, session, err := s.lookup(c)
	if err != nil {
		return err
	}

	var req startReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	genre := defaultOption(req.Genre, story.Genres)
	mood := defaultOption(req.Mood, story.Moods)

	if _, err := session.Start(c.Request().Context(), req.Prompt, genre, mood); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, newSessionView(id, session.Snapshot()))
}

func (s *Server) handlePostChoose(c echo.Context) error {
	id, session, err := s.lookup(c)
	if err != nil {
		return err
	}

	var req chooseReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	if _, err := session.Choose(c.Request().Context(), req.Choice); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, newSessionView(id, session.Snapshot()))
}

func (s *Server) handlePostReset(c echo.Context) error {
	id, session, err := s.lookup(c)
	if err != nil {
		return err
	}
	session.Reset()
	return c.JSON(http.StatusOK, newSessionView(id, session.Snapshot()))
}

func (s *Server) handleGetTranscript(c echo.Context) error {
	_, session, err := s.lookup(c)
	if err != nil {
		return err
	}

	content, err := export.Markdown(s.options.TranscriptTemplate, export.Document(session.Snapshot()))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=UTF-8", content)
}

func (s *Server) lookup(c echo.Context) (string, *story.Session, error) {
	id := c.Param("id")
	session, ok := s.sessions.get(id)
	if !ok {
		return "", nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return id, session, nil
}

func defaultOption(value string, options []string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return options[0]
	}
	return value
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, story.ErrEmptyPrompt),
		errors.Is(err, story.ErrUnknownChoice):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, story.ErrInvalidPhase),
		errors.Is(err, story.ErrBusy),
		errors.Is(err, story.ErrSessionReset):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, inference.ErrGeneration):
		slog.Default().Warn("story generation failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "the story could not be generated, please try again")
	default:
		slog.Default().Error("unexpected error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
}
