package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/wordmaster/internal/corpus"
	sr "github.com/example/wordmaster/internal/spaced_repetition"
	"github.com/example/wordmaster/pkg/models"
)

const (
	defaultSessionWords  = 10
	defaultTestQuestions = 20
	defaultSearchLimit   = 20
	dateLayout           = "2006-01-02"
)

type startSessionRequest struct {
	Mode  string `json:"mode"`
	Count int    `json:"count"`
}

type answerWordRequest struct {
	WordID    string `json:"word_id"`
	Correct   bool   `json:"correct"`
	LatencyMs int64  `json:"latency_ms"`
}

type startTestRequest struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

type answerQuestionRequest struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	TimeUsedMs int64  `json:"time_used_ms"`
}

type navigateRequest struct {
	Delta int `json:"delta"`
}

// POST /api/v1/learners/:learner/sessions
func (s *Server) startSession(c echo.Context) error {
	var req startSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	mode, err := sr.ParseMode(req.Mode)
	if err != nil {
		return s.respond(c, nil, err)
	}
	if req.Count == 0 {
		req.Count = defaultSessionWords
	}
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	session, err := t.StartSession(c.Request().Context(), mode, req.Count)
	return s.respond(c, session, err)
}

// POST /api/v1/learners/:learner/sessions/answers
func (s *Server) answerWord(c echo.Context) error {
	var req answerWordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	fb, err := t.AnswerWord(c.Request().Context(), req.WordID, req.Correct, time.Duration(req.LatencyMs)*time.Millisecond)
	return s.respond(c, fb, err)
}

// POST /api/v1/learners/:learner/sessions/end
func (s *Server) endSession(c echo.Context) error {
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	summary, err := t.EndSession(c.Request().Context())
	return s.respond(c, summary, err)
}

// POST /api/v1/learners/:learner/sessions/abort
func (s *Server) abortSession(c echo.Context) error {
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	summary, err := t.AbortSession(c.Request().Context())
	return s.respond(c, summary, err)
}

// GET /api/v1/learners/:learner/sessions/current
func (s *Server) currentSession(c echo.Context) error {
	t, err := s.peek(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	session, ok := t.CurrentSession()
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "no study session yet"})
	}
	return c.JSON(http.StatusOK, session)
}

// POST /api/v1/learners/:learner/tests
func (s *Server) startTest(c echo.Context) error {
	var req startTestRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	level, err := models.ParseLevel(req.Level)
	if err != nil {
		return s.respond(c, nil, err)
	}
	if req.Count == 0 {
		req.Count = defaultTestQuestions
	}
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	test, err := t.StartTest(level, req.Count)
	return s.respond(c, test, err)
}

// POST /api/v1/learners/:learner/tests/answers
func (s *Server) answerQuestion(c echo.Context) error {
	var req answerQuestionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	fb, err := t.AnswerQuestion(req.QuestionID, req.Answer, time.Duration(req.TimeUsedMs)*time.Millisecond)
	return s.respond(c, fb, err)
}

// POST /api/v1/learners/:learner/tests/navigate
func (s *Server) navigateQuestion(c echo.Context) error {
	var req navigateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	test, err := t.NavigateQuestion(req.Delta)
	return s.respond(c, test, err)
}

// POST /api/v1/learners/:learner/tests/expire
func (s *Server) expireQuestion(c echo.Context) error {
	var req answerQuestionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	fb, err := t.ExpireQuestion(req.QuestionID, req.Answer)
	return s.respond(c, fb, err)
}

// POST /api/v1/learners/:learner/tests/pause
func (s *Server) pauseTest(c echo.Context) error {
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	test, err := t.PauseTest()
	return s.respond(c, test, err)
}

// POST /api/v1/learners/:learner/tests/resume
func (s *Server) resumeTest(c echo.Context) error {
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	test, err := t.ResumeTest()
	return s.respond(c, test, err)
}

// POST /api/v1/learners/:learner/tests/end
func (s *Server) endTest(c echo.Context) error {
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	summary, err := t.EndTest(c.Request().Context())
	return s.respond(c, summary, err)
}

// GET /api/v1/learners/:learner/tests/current
func (s *Server) currentTest(c echo.Context) error {
	t, err := s.peek(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	test, ok := t.CurrentTest()
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "no test yet"})
	}
	return c.JSON(http.StatusOK, test)
}

// GET /api/v1/learners/:learner/tests/history
func (s *Server) testHistory(c echo.Context) error {
	t, err := s.peek(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	history, err := t.Progress().TestHistory(c.Request().Context(), t.LearnerID())
	return s.respond(c, history, err)
}

// GET /api/v1/learners/:learner/difficulty
func (s *Server) difficulty(c echo.Context) error {
	t, err := s.peek(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	return c.JSON(http.StatusOK, t.Difficulty())
}

// GET /api/v1/learners/:learner/progress
func (s *Server) overview(c echo.Context) error {
	t, err := s.peek(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	ov, err := t.Progress().Overview(c.Request().Context(), t.LearnerID(), t.Now())
	return s.respond(c, ov, err)
}

// GET /api/v1/learners/:learner/progress/daily?date=2025-06-15
func (s *Server) daily(c echo.Context) error {
	t, err := s.peek(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	day, err := parseDate(c.QueryParam("date"), t.Now())
	if err != nil {
		return badRequest(c, "invalid date, expected YYYY-MM-DD")
	}
	dp, err := t.Progress().Daily(c.Request().Context(), t.LearnerID(), day)
	return s.respond(c, dp, err)
}

// GET /api/v1/learners/:learner/progress/weekly?start=2025-06-09
func (s *Server) weekly(c echo.Context) error {
	t, err := s.peek(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	start, err := parseDate(c.QueryParam("start"), t.Now().AddDate(0, 0, -6))
	if err != nil {
		return badRequest(c, "invalid start, expected YYYY-MM-DD")
	}
	wp, err := t.Progress().Weekly(c.Request().Context(), t.LearnerID(), start)
	return s.respond(c, wp, err)
}

// GET /api/v1/learners/:learner/progress/difficulty
func (s *Server) accuracyByDifficulty(c echo.Context) error {
	t, err := s.peek(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	out, err := t.Progress().AccuracyByDifficulty(c.Request().Context(), t.LearnerID())
	return s.respond(c, out, err)
}

// DELETE /api/v1/learners/:learner/progress
func (s *Server) reset(c echo.Context) error {
	t, err := s.trainer(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	if err := t.Reset(c.Request().Context()); err != nil {
		return s.respond(c, nil, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /api/v1/learners/:learner/profile
func (s *Server) profile(c echo.Context) error {
	t, err := s.peek(c)
	if err != nil {
		return s.respond(c, nil, err)
	}
	p, err := t.Profile(c.Request().Context())
	return s.respond(c, p, err)
}

// GET /api/v1/words?q=&min=&max=&tag=&limit=
func (s *Server) searchWords(c echo.Context) error {
	filters := corpus.SearchFilters{}
	var err error
	if filters.MinDifficulty, err = intParam(c, "min", 0); err != nil {
		return badRequest(c, "invalid min")
	}
	if filters.MaxDifficulty, err = intParam(c, "max", 0); err != nil {
		return badRequest(c, "invalid max")
	}
	limit, err := intParam(c, "limit", defaultSearchLimit)
	if err != nil {
		return badRequest(c, "invalid limit")
	}
	if tags := c.QueryParam("tag"); tags != "" {
		filters.Tags = strings.Split(tags, ",")
	}
	return c.JSON(http.StatusOK, s.corpus.Search(c.QueryParam("q"), filters, limit))
}

// GET /api/v1/words/:id
func (s *Server) getWord(c echo.Context) error {
	w, ok := s.corpus.Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "word not found"})
	}
	return c.JSON(http.StatusOK, w)
}

func parseDate(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return time.Parse(dateLayout, s)
}

func intParam(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
