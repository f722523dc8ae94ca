package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/recalc"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	sched *recalc.ManualScheduler
	jwt   *JWTService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds a server on a fake clock. With history it gets a SQLite
// store and a JWT service.
func newTestServer(t *testing.T, history bool) *testServer {
	t.Helper()

	sched := recalc.NewManualScheduler(testEpoch)
	d := deps{sched: sched}

	var jwtService *JWTService
	if history {
		store, err := db.OpenSQLite(filepath.Join(t.TempDir(), "reports.db"))
		require.NoError(t, err)
		jwtService = setupTestJWTService(t, time.Hour)
		d.store = store
		d.jwtService = jwtService
	}

	s, err := newServer(Config{Logger: discardLogger()}, d)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return &testServer{Server: s, sched: sched, jwt: jwtService}
}

func (ts *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := ts.jwt.GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[map[string]any](t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, false, resp["history"])
	assert.Equal(t, float64(0), resp["sessions"])
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodOptions, "/score", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestScoreEndpoint(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name    string
		body    string
		score   int
		missing []string
	}{
		{name: "empty document", body: `{"resume":{}}`, score: 46},
		{name: "unmatched keyword", body: `{"resume":{},"job_keywords":[" Go "]}`, score: 24, missing: []string{"go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/score", tt.body, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			resp := decodeBody[types.ScoreResponse](t, w)
			assert.Equal(t, tt.score, resp.Score)
			assert.Len(t, resp.SectionSignals, 4)
			assert.Empty(t, resp.ReportID)
			assert.False(t, resp.ScoredAt.IsZero())
			if tt.missing != nil {
				require.NotNil(t, resp.KeywordMatches)
				assert.Equal(t, tt.missing, resp.KeywordMatches.Missing)
			} else {
				assert.Nil(t, resp.KeywordMatches)
			}
		})
	}
}

func TestScoreEndpoint_KeywordsFromDescription(t *testing.T) {
	ts := newTestServer(t, false)

	body := `{"resume":{"summary":"Kubernetes operator"},"job_description":"Kubernetes Kubernetes Kubernetes experience required."}`
	w := ts.do(t, http.MethodPost, "/score", body, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[types.ScoreResponse](t, w)
	assert.NotEmpty(t, resp.JobKeywords)
	require.NotNil(t, resp.KeywordMatches)
	assert.Contains(t, resp.KeywordMatches.Matched, "kubernetes")
}

func TestScoreEndpoint_BadRequests(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name string
		body string
	}{
		{name: "not JSON", body: `{"resume":`},
		{name: "missing resume", body: `{"job_keywords":["go"]}`},
		{name: "schema violation", body: `{"resume":{"summary":42}}`},
		{name: "bad resume id", body: `{"resume":{},"resume_id":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/score", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decodeBody[map[string]string](t, w), "error")
		})
	}
}

func TestScoreEndpoint_RejectsBadToken(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodPost, "/score", `{"resume":{}}`, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHistory(t *testing.T) {
	ts := newTestServer(t, true)
	userID := uuid.New()
	resumeID := uuid.New()
	token := ts.token(t, userID)

	// Anonymous scoring is not stored even with a resume ID.
	w := ts.do(t, http.MethodPost, "/score", `{"resume":{},"resume_id":"`+resumeID.String()+`"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[types.ScoreResponse](t, w).ReportID)

	w = ts.do(t, http.MethodPost, "/score", `{"resume":{},"resume_id":"`+resumeID.String()+`"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeBody[types.ScoreResponse](t, w)
	require.NotEmpty(t, first.ReportID)

	w = ts.do(t, http.MethodPost, "/score", `{"resume":{},"job_keywords":["go"],"resume_id":"`+resumeID.String()+`"}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeBody[types.ScoreResponse](t, w)

	t.Run("list", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/resumes/"+resumeID.String()+"/reports", "", token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Reports []db.ReportRecord `json:"reports"`
			Count   int               `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 2, resp.Count)
		assert.Equal(t, second.ReportID, resp.Reports[0].ID.String())
		assert.Equal(t, 24, resp.Reports[0].Score)
		assert.Equal(t, 46, resp.Reports[1].Score)
	})

	t.Run("list with limit", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/resumes/"+resumeID.String()+"/reports?limit=1", "", token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decodeBody[map[string]any](t, w)["count"])
	})

	t.Run("bad limit", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/resumes/"+resumeID.String()+"/reports?limit=0", "", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/reports/"+first.ReportID, "", token)
		require.Equal(t, http.StatusOK, w.Code)
		rec := decodeBody[db.ReportRecord](t, w)
		assert.Equal(t, resumeID, rec.ResumeID)
		assert.Equal(t, userID, rec.UserID)
		assert.Equal(t, 46, rec.Score)
	})

	t.Run("other user", func(t *testing.T) {
		other := ts.token(t, uuid.New())
		w := ts.do(t, http.MethodGet, "/reports/"+first.ReportID, "", other)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = ts.do(t, http.MethodGet, "/resumes/"+resumeID.String()+"/reports", "", other)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(0), decodeBody[map[string]any](t, w)["count"])
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/reports/"+first.ReportID, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := ts.do(t, http.MethodGet, "/reports/not-a-uuid", "", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReportHistory_Unavailable(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodGet, "/reports/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestKeywordsEndpoint(t *testing.T) {
	ts := newTestServer(t, false)

	body := `{"job_description":"We run Kubernetes and PostgreSQL. Kubernetes experience is a must.","limit":5}`
	for _, useLLM := range []bool{false, true} {
		payload := body
		if useLLM {
			payload = strings.Replace(body, `"limit"`, `"use_llm":true,"limit"`, 1)
		}
		w := ts.do(t, http.MethodPost, "/keywords", payload, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody[types.KeywordsResponse](t, w)
		// No LLM client is configured, so both paths extract locally.
		assert.Equal(t, "local", resp.Source)
		assert.NotEmpty(t, resp.Keywords)
		assert.LessOrEqual(t, len(resp.Keywords), 5)
		assert.Contains(t, resp.Keywords, "kubernetes")
	}
}

func TestKeywordsEndpoint_BadRequests(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name string
		body string
	}{
		{name: "neither source", body: `{}`},
		{name: "both sources", body: `{"job_description":"Go","job_url":"https://example.com/job"}`},
		{name: "bad url", body: `{"job_url":"not a url"}`},
		{name: "limit too high", body: `{"job_description":"Go","limit":1000}`},
		{name: "blank text with LLM", body: `{"job_description":"   ","use_llm":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/keywords", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestKeywordsEndpoint_FromURL(t *testing.T) {
	page := `<html><body><main><h1>Backend Engineer</h1>
<p>We are hiring a backend engineer to build Kubernetes operators in Go.
You will own PostgreSQL migrations, Kubernetes upgrades and on-call rotations.
Experience with Terraform, Kafka and observability tooling is a plus.</p></main></body></html>`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, page) //nolint:errcheck
	}))
	defer upstream.Close()

	ts := newTestServer(t, false)
	w := ts.do(t, http.MethodPost, "/keywords", `{"job_url":"`+upstream.URL+`/jobs/1"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[types.KeywordsResponse](t, w)
	assert.Contains(t, resp.Keywords, "kubernetes")
	assert.Equal(t, 1, ts.fetcher.Len())
}

func TestKeywordsEndpoint_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	ts := newTestServer(t, false)
	w := ts.do(t, http.MethodPost, "/keywords", `{"job_url":"`+upstream.URL+`"}`, "")
	assert.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
	assert.Equal(t, 0, ts.fetcher.Len())
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodPost, "/sessions", `{"job_keywords":["Go","go"]}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[types.SessionResponse](t, w)
	assert.Equal(t, []string{"go"}, created.JobKeywords)
	base := "/sessions/" + created.ID

	w = ts.do(t, http.MethodPost, base+"/recalculate", `{"resume":{}}`, "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	state := decodeBody[recalc.State](t, w)
	assert.True(t, state.Pending)
	assert.Equal(t, 0, state.Passes)

	ts.sched.Advance(recalc.DefaultDebounce)

	w = ts.do(t, http.MethodGet, base, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	state = decodeBody[recalc.State](t, w)
	assert.Equal(t, 1, state.Passes)
	assert.Equal(t, 24, state.Score, "session keywords apply when the request has none")
	assert.Equal(t, []string{"go"}, state.JobKeywords)

	// Request keywords override the session's.
	w = ts.do(t, http.MethodPost, base+"/recalculate", `{"resume":{"skills":[{"category":"Languages","items":["Go"]}]},"job_keywords":["go"]}`, "")
	require.Equal(t, http.StatusAccepted, w.Code)

	w = ts.do(t, http.MethodPost, base+"/flush", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var flushed struct {
		Ran   bool         `json:"ran"`
		State recalc.State `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flushed))
	assert.True(t, flushed.Ran)
	assert.Equal(t, 2, flushed.State.Passes)
	require.NotNil(t, flushed.State.KeywordMatches)
	assert.Equal(t, []string{"go"}, flushed.State.KeywordMatches.Matched)
	require.NotNil(t, flushed.State.Feedback)
	assert.Greater(t, flushed.State.Feedback.Delta, 0)

	w = ts.do(t, http.MethodDelete, base, "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, base, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodPost, base+"/recalculate", `{"resume":{}}`, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodDelete, base, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionEndpoints_BadRequests(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodGet, "/sessions/not-a-uuid", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/sessions", `{"job_keywords":"go"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/sessions", `{}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody[types.SessionResponse](t, w).ID

	w = ts.do(t, http.MethodPost, "/sessions/"+id+"/recalculate", `{"resume":{"experience":[{"bullets":"x"}]}}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// readEvent reads one SSE event block and returns its event name and data.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestSessionStream(t *testing.T) {
	ts := newTestServer(t, false)
	httpServer := httptest.NewServer(ts.Handler())
	defer httpServer.Close()

	resp, err := http.Post(httpServer.URL+"/sessions", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	var created types.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	base := httpServer.URL + "/sessions/" + created.ID

	stream, err := http.Get(base + "/stream")
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	reader := bufio.NewReader(stream.Body)
	event, data := readEvent(t, reader)
	assert.Equal(t, eventState, event)
	assert.Contains(t, data, `"passes":0`)

	resp, err = http.Post(base+"/recalculate", "application/json", bytes.NewReader([]byte(`{"resume":{}}`)))
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = http.Post(base+"/flush", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, base, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Contains(t, string(rest), `"score":46`)
	assert.Contains(t, string(rest), "event: closed")
}

func TestRateLimit(t *testing.T) {
	sched := recalc.NewManualScheduler(testEpoch)
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled: true,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/score", Method: http.MethodPost, Limit: 2, Window: time.Minute, Burst: 2},
		},
	})
	s, err := newServer(Config{Logger: discardLogger()}, deps{sched: sched, limiter: limiter})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	ts := &testServer{Server: s, sched: sched}

	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodPost, "/score", `{"resume":{}}`, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := ts.do(t, http.MethodPost, "/score", `{"resume":{}}`, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeBody[map[string]any](t, w)["error"])

	// Unlimited endpoints are unaffected.
	w = ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
