package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestMockRelay_PendingUntilReady(t *testing.T) {
	m := NewMockRelayT(t, WithReply("the answer"))

	resp, body := get(t, m.PendingURL("abc"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.HasSuffix(resp.Request.URL.Path, "/pending/abc") {
		t.Errorf("final path = %s", resp.Request.URL.Path)
	}
	if body != "Still processing." {
		t.Errorf("body = %q", body)
	}

	resp, _ = get(t, m.URL()+"/resp/abc")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("result before ready: status = %d, want 404", resp.StatusCode)
	}

	m.SetReady(true)
	resp, body = get(t, m.PendingURL("abc"))
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/resp/abc" || body != "the answer" {
		t.Errorf("after ready: status=%d path=%s body=%q", resp.StatusCode, resp.Request.URL.Path, body)
	}
	if got := m.RequestCount.Load(); got != 4 {
		t.Errorf("RequestCount = %d, want 4", got)
	}
}

func TestMockRelay_FixedStatus(t *testing.T) {
	m := NewMockRelayT(t, WithStatus(http.StatusInternalServerError, "internal error"))

	resp, body := get(t, m.PendingURL("x"))
	if resp.StatusCode != http.StatusInternalServerError || body != "internal error" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
}

func TestMockRelay_Abort(t *testing.T) {
	m := NewMockRelayT(t, WithAbort())

	resp, err := http.Get(m.PendingURL("x"))
	if err == nil {
		_ = resp.Body.Close()
		t.Fatal("expected a transport error")
	}
}

func TestMockRelay_Submit(t *testing.T) {
	m := NewMockRelayT(t)

	resp, err := http.Post(m.URL()+"/in", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/pending/job-1" {
		t.Errorf("Location = %q", loc)
	}
	if subs := m.Submissions(); len(subs) != 1 || subs[0] != "hello" {
		t.Errorf("Submissions = %v", subs)
	}
}

func TestMockRelay_CustomHandler(t *testing.T) {
	m := NewMockRelay(WithHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer m.Close()

	resp, _ := get(t, m.PendingURL("x"))
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want 418", resp.StatusCode)
	}
	if m.RequestCount.Load() != 0 {
		t.Errorf("custom handler requests are not counted")
	}
}
