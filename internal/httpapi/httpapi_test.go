package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jswider/quizforge/internal/feedback"
	"github.com/jswider/quizforge/internal/negotiate"
	"github.com/jswider/quizforge/internal/quiz"
	"github.com/jswider/quizforge/internal/quizgen"
	"github.com/jswider/quizforge/internal/topics"
	"github.com/jswider/quizforge/internal/workflow"
)

type fixedExtractor struct{}

func (fixedExtractor) Extract(_ context.Context, _ []string, _ int) (*topics.Set, error) {
	return topics.NewSet([]topics.Topic{
		{Name: "Paging", Weight: 0.6},
		{Name: "Scheduling", Weight: 0.4},
	})
}

type removeInterpreter struct{}

func (removeInterpreter) Interpret(_ context.Context, _ *topics.Set, instruction string) (topics.Diff, error) {
	return topics.Diff{Remove: []string{instruction}}, nil
}

type seqGenerator struct{ n int }

func (g *seqGenerator) GenerateQuestion(_ context.Context, topic topics.Topic, difficulty quizgen.Difficulty) (*quizgen.Question, error) {
	g.n++
	return &quizgen.Question{
		ID:         fmt.Sprintf("q%d", g.n),
		TopicID:    topic.ID,
		Topic:      topic.Name,
		Prompt:     fmt.Sprintf("%s question %d?", topic.Name, g.n),
		Kind:       quizgen.KindSingleChoice,
		Choices:    []string{"Right", "Wrong"},
		AnswerKey:  []string{"Right"},
		Difficulty: difficulty,
	}, nil
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	neg := negotiate.New(fixedExtractor{}, feedback.NewProcessor(removeInterpreter{}), negotiate.DefaultConfig())
	builder := quizgen.NewBuilder(&seqGenerator{}, quizgen.DefaultConfig())
	orch := workflow.NewOrchestrator(neg, builder, quiz.NewSession(nil), workflow.NewMemoryStore())

	ts := httptest.NewServer(NewServer(orch, DefaultOptions()).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func createSession(t *testing.T, ts *httptest.Server) sessionView {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/v1/sessions", createRequest{
		Documents:     []string{"Operating systems notes covering paging and scheduling."},
		QuestionCount: 4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var view sessionView
	decode(t, resp, &view)
	return view
}

func TestHealth(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndGetSession(t *testing.T) {
	ts := testServer(t)
	view := createSession(t, ts)

	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, "negotiating", view.Phase)
	require.NotNil(t, view.Negotiation)
	assert.Len(t, view.Negotiation.Topics, 2)
	assert.Equal(t, 0, view.Negotiation.Revision)

	resp, err := http.Get(ts.URL + "/api/v1/sessions/" + view.SessionID)
	require.NoError(t, err)
	var got sessionView
	decode(t, resp, &got)
	assert.Equal(t, view.SessionID, got.SessionID)
}

func TestCreateSessionValidation(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/sessions", createRequest{Documents: []string{"  "}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownSessionIs404(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/sessions/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFeedbackStaleRevisionIs409WithCurrentSet(t *testing.T) {
	ts := testServer(t)
	view := createSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/v1/sessions/"+view.SessionID+"/feedback",
		feedbackRequest{Revision: 5, Instruction: "Paging"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body struct {
		Error   apiError     `json:"error"`
		Session *sessionView `json:"session"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "STALE_REVISION", body.Error.Code)
	require.NotNil(t, body.Session)
	assert.Equal(t, 0, body.Session.Negotiation.Revision)
	assert.Len(t, body.Session.Negotiation.Topics, 2)
}

func TestFullSessionOverHTTP(t *testing.T) {
	ts := testServer(t)
	view := createSession(t, ts)
	base := ts.URL + "/api/v1/sessions/" + view.SessionID

	resp := postJSON(t, base+"/feedback", feedbackRequest{Revision: 0, Instruction: "Scheduling"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var afterFeedback sessionView
	decode(t, resp, &afterFeedback)
	require.Len(t, afterFeedback.Negotiation.Topics, 1)
	assert.Equal(t, 1, afterFeedback.Negotiation.Revision)

	resp = postJSON(t, base+"/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var confirmed sessionView
	decode(t, resp, &confirmed)
	assert.Equal(t, "quiz", confirmed.Phase)
	require.NotNil(t, confirmed.Quiz)
	assert.Equal(t, 4, confirmed.Quiz.Total)
	require.NotNil(t, confirmed.Quiz.Current)
	assert.Empty(t, confirmed.Report)

	// The question view must not leak the answer key.
	raw, err := json.Marshal(confirmed.Quiz.Current)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "answer_key")

	var last answerResponse
	for i := 0; i < 4; i++ {
		resp = postJSON(t, base+"/answer", answerRequest{Answer: []string{"Right"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decode(t, resp, &last)
		assert.True(t, last.Correct)
	}
	assert.Equal(t, "completed", last.Session.Phase)
	require.NotNil(t, last.Session.Report)
	assert.Equal(t, 1.0, last.Session.Report.Score)

	// Quiz finished: no further answers accepted anywhere.
	resp = postJSON(t, base+"/answer", answerRequest{Answer: []string{"Right"}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAnswerBeforeConfirmIs409(t *testing.T) {
	ts := testServer(t)
	view := createSession(t, ts)

	resp := postJSON(t, ts.URL+"/api/v1/sessions/"+view.SessionID+"/answer",
		answerRequest{Answer: []string{"Right"}})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body struct {
		Error apiError `json:"error"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "INVALID_TRANSITION", body.Error.Code)
}
