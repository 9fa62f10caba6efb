package relayserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httprelay/relaypoll/internal/store"
	"github.com/httprelay/relaypoll/internal/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestRelay(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(newTestStore(t), opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

// noRedirect stops the client at the first response.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func submit(t *testing.T, ts *httptest.Server, msg string) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/in", "text/plain", strings.NewReader(msg))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	loc := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, PendingPrefix), "location %q", loc)
	return strings.TrimPrefix(loc, PendingPrefix)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestSubmit_PlainBody(t *testing.T) {
	s, ts := newTestRelay(t)
	id := submit(t, ts, "hello")

	job, err := s.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hello", job.Message)
}

func TestSubmit_FormField(t *testing.T) {
	s, ts := newTestRelay(t)

	resp, err := http.PostForm(ts.URL+"/in", url.Values{"msg": {"from a form"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	id := strings.TrimPrefix(resp.Header.Get("Location"), PendingPrefix)
	job, err := s.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "from a form", job.Message)
}

func TestSubmit_QueryString(t *testing.T) {
	_, ts := newTestRelay(t)

	resp, err := http.Post(ts.URL+"/in?msg=query", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestSubmit_EmptyPayload(t *testing.T) {
	_, ts := newTestRelay(t)

	resp, err := http.Post(ts.URL+"/in", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "No useful payload")
}

func TestSubmit_TooLarge(t *testing.T) {
	_, ts := newTestRelay(t, WithMaxBody(8))

	resp, err := http.Post(ts.URL+"/in", "text/plain", strings.NewReader("this is longer than eight bytes"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestPending_StillWaiting(t *testing.T) {
	_, ts := newTestRelay(t)
	id := submit(t, ts, "slow")

	resp, err := noRedirect().Get(ts.URL + PendingPrefix + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "still being processed")
}

func TestPending_RedirectsOnceAnswered(t *testing.T) {
	_, ts := newTestRelay(t)
	id := submit(t, ts, "question")

	req, err := http.NewRequest(http.MethodPost, ts.URL+ResultPrefix+id, strings.NewReader("answer"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = noRedirect().Get(ts.URL + PendingPrefix + id)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, ResultPrefix+id, resp.Header.Get("Location"))

	// A following client lands on the result.
	resp, err = http.Get(ts.URL + PendingPrefix + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "answer", readBody(t, resp))
	assert.Contains(t, resp.Request.URL.Path, ResultPrefix+id)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestPending_UnknownJob(t *testing.T) {
	_, ts := newTestRelay(t)

	resp, err := http.Get(ts.URL + PendingPrefix + "nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResult_NotYetAvailable(t *testing.T) {
	_, ts := newTestRelay(t)
	id := submit(t, ts, "waiting")

	resp, err := http.Get(ts.URL + ResultPrefix + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Response not yet available.")
}

func TestResult_SniffsBinaryReply(t *testing.T) {
	s, ts := newTestRelay(t)
	id := submit(t, ts, "picture please")

	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	require.NoError(t, s.store.Reply(context.Background(), id, png))

	resp, err := http.Get(ts.URL + ResultPrefix + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestReply_Conflicts(t *testing.T) {
	_, ts := newTestRelay(t)
	id := submit(t, ts, "once")

	post := func(target string) int {
		req, err := http.NewRequest(http.MethodPost, target, strings.NewReader("reply"))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusNoContent, post(ts.URL+ResultPrefix+id))
	assert.Equal(t, http.StatusConflict, post(ts.URL+ResultPrefix+id))
	assert.Equal(t, http.StatusNotFound, post(ts.URL+ResultPrefix+"missing"))
}

func TestWrongMethod(t *testing.T) {
	_, ts := newTestRelay(t)

	resp, err := http.Get(ts.URL + "/in")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+PendingPrefix+"x", nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestRecoverMiddleware(t *testing.T) {
	s := New(newTestStore(t))
	h := s.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestJobsAndHealth(t *testing.T) {
	s, ts := newTestRelay(t)
	a := submit(t, ts, "first")
	submit(t, ts, "second")
	require.NoError(t, s.store.Reply(context.Background(), a, "done"))

	resp, err := http.Get(ts.URL + "/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	var jobs []types.JobStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	require.Len(t, jobs, 2)

	ready := 0
	for _, j := range jobs {
		if j.Status == "ready" {
			ready++
			assert.Equal(t, a, j.ID)
			assert.Equal(t, 4, j.Bytes)
		}
	}
	assert.Equal(t, 1, ready)

	resp2, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 1, health["pending"])
	assert.Equal(t, false, health["echo"])
}

func TestEchoDelay_AnswersJobs(t *testing.T) {
	_, ts := newTestRelay(t, WithEchoDelay(20*time.Millisecond))
	id := submit(t, ts, "ping")

	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + ResultPrefix + id)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK && readBody(t, resp) == EchoPrefix+"ping"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := New(newTestStore(t), WithEchoDelay(time.Hour))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
