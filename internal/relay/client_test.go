package relay

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/httprelay/relaypoll/internal/testutil"
)

func TestFetch_FollowsRedirectToResult(t *testing.T) {
	m := testutil.NewMockRelayT(t, testutil.WithReady(true), testutil.WithReply("done!"))
	c := NewClient("", 0)

	resp := c.Fetch(context.Background(), m.PendingURL("abc123"))

	require.NoError(t, resp.Err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, m.URL()+"/resp/abc123", resp.FinalURL)
	assert.Equal(t, "done!", resp.Body)
	assert.Equal(t, "text/plain", resp.ContentType)
	assert.True(t, resp.Complete())
}

func TestFetch_ParsesContentType(t *testing.T) {
	m := testutil.NewMockRelayT(t, testutil.WithHandler(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "Application/Octet-Stream; name=blob")
		_, _ = w.Write([]byte{0x00, 0x01})
	}))

	resp := NewClient("", 0).Fetch(context.Background(), m.PendingURL("x"))

	require.NoError(t, resp.Err)
	assert.Equal(t, "application/octet-stream", resp.ContentType)
}

func TestFetch_PendingStaysOnPendingURL(t *testing.T) {
	m := testutil.NewMockRelayT(t)
	c := NewClient("", 0)

	resp := c.Fetch(context.Background(), m.PendingURL("abc123"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, m.PendingURL("abc123"), resp.FinalURL)
}

func TestFetch_ServerError(t *testing.T) {
	m := testutil.NewMockRelayT(t, testutil.WithStatus(http.StatusInternalServerError, "internal error"))
	c := NewClient("", 0)

	resp := c.Fetch(context.Background(), m.PendingURL("x"))

	require.NoError(t, resp.Err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal error", resp.Body)
}

func TestFetch_AbortIsTransportFailure(t *testing.T) {
	m := testutil.NewMockRelayT(t, testutil.WithAbort())
	c := NewClient("", 0)

	resp := c.Fetch(context.Background(), m.PendingURL("x"))

	assert.Error(t, resp.Err)
	assert.Zero(t, resp.StatusCode)
	assert.False(t, resp.Complete())
}

func TestFetch_InvalidURL(t *testing.T) {
	resp := NewClient("", 0).Fetch(context.Background(), "://nope")
	assert.Error(t, resp.Err)
	assert.False(t, resp.Complete())
}

func TestFetch_Timeout(t *testing.T) {
	m := testutil.NewMockRelayT(t, testutil.WithLatency(500*time.Millisecond))
	c := NewClient("", 20*time.Millisecond)

	resp := c.Fetch(context.Background(), m.PendingURL("slow"))

	require.Error(t, resp.Err)
	assert.True(t, errors.Is(resp.Err, context.DeadlineExceeded))
}

func TestFetch_UserAgent(t *testing.T) {
	ua := make(chan string, 1)
	m := testutil.NewMockRelayT(t, testutil.WithHandler(func(w http.ResponseWriter, r *http.Request) {
		ua <- r.Header.Get("User-Agent")
	}))

	NewClient("relaypoll-test/1.0", 0).Fetch(context.Background(), m.URL())
	assert.Equal(t, "relaypoll-test/1.0", <-ua)
}

func TestSubmit_ReturnsAbsolutePendingURL(t *testing.T) {
	m := testutil.NewMockRelayT(t)
	c := NewClient("", 0)

	pending, err := c.Submit(context.Background(), m.URL(), "please process")

	require.NoError(t, err)
	assert.Equal(t, m.URL()+"/pending/job-1", pending)
	assert.Equal(t, []string{"please process"}, m.Submissions())
}

func TestSubmit_EmptyMessage(t *testing.T) {
	_, err := NewClient("", 0).Submit(context.Background(), "http://127.0.0.1:1", "  ")
	assert.Error(t, err)
}

func TestSubmit_Rejected(t *testing.T) {
	m := testutil.NewMockRelayT(t, testutil.WithHandler(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "You must use GET", http.StatusMethodNotAllowed)
	}))

	_, err := NewClient("", 0).Submit(context.Background(), m.URL(), "msg")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusMethodNotAllowed, se.StatusCode)
	assert.Contains(t, se.Error(), "You must use GET")
}

func TestSubmit_MissingLocation(t *testing.T) {
	m := testutil.NewMockRelayT(t, testutil.WithHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	_, err := NewClient("", 0).Submit(context.Background(), m.URL(), "msg")
	assert.ErrorContains(t, err, "without a Location header")
}

func TestSubmit_ResolvesRelativeLocation(t *testing.T) {
	m := testutil.NewMockRelayT(t, testutil.WithHandler(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "../pending/rel-1")
		w.WriteHeader(http.StatusAccepted)
	}))

	pending, err := NewClient("", 0).Submit(context.Background(), m.URL(), "msg")

	require.NoError(t, err)
	assert.Equal(t, m.URL()+"/pending/rel-1", pending)
}
