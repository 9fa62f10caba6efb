package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/httprelay/relaypoll/internal/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		resp types.Response
		want types.Outcome
	}{
		{
			name: "result URL",
			resp: types.Response{FinalURL: "http://relay.test/resp/abc123", StatusCode: 200, Body: "payload"},
			want: types.NewRedirected("/resp/abc123", "payload"),
		},
		{
			name: "result body kept verbatim",
			resp: types.Response{FinalURL: "http://relay.test/resp/x", StatusCode: 200, Body: "  <p>a&b</p>\n"},
			want: types.NewRedirected("/resp/x", "  <p>a&b</p>\n"),
		},
		{
			name: "200 without marker is pending",
			resp: types.Response{FinalURL: "http://relay.test/pending/abc123", StatusCode: 200, Body: "still working"},
			want: types.NewNetworkPending(),
		},
		{
			name: "server error",
			resp: types.Response{FinalURL: "http://relay.test/pending/abc123", StatusCode: 500, Body: "internal error"},
			want: types.NewServerError("internal error"),
		},
		{
			name: "404 on a result URL is an error",
			resp: types.Response{FinalURL: "http://relay.test/resp/abc", StatusCode: 404, Body: "Response not yet available."},
			want: types.NewServerError("Response not yet available."),
		},
		{
			name: "other 2xx is not success",
			resp: types.Response{FinalURL: "http://relay.test/resp/abc", StatusCode: 204},
			want: types.NewServerError(""),
		},
		{
			name: "transport failure uses the error text",
			resp: types.Response{FinalURL: "http://relay.test/pending/1", Err: errors.New("connection reset")},
			want: types.NewServerError("connection reset"),
		},
		{
			name: "transport failure keeps partial body",
			resp: types.Response{FinalURL: "http://relay.test/resp/1", StatusCode: 200, Body: "partial", Err: errors.New("unexpected EOF")},
			want: types.NewServerError("partial"),
		},
		{
			name: "no status and no error",
			resp: types.Response{FinalURL: "http://relay.test/resp/1"},
			want: types.NewServerError(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.resp, "/resp/"))
		})
	}
}

func TestClassify_KeepsContentType(t *testing.T) {
	out := Classify(types.Response{FinalURL: "http://relay.test/resp/a", StatusCode: 200, Body: "{}", ContentType: "application/json"}, "/resp/")
	assert.Equal(t, types.Redirected, out.Kind)
	assert.Equal(t, "application/json", out.ContentType)

	out = Classify(types.Response{FinalURL: "http://relay.test/pending/a", StatusCode: 502, ContentType: "text/html"}, "/resp/")
	assert.Equal(t, types.ServerError, out.Kind)
	assert.Equal(t, "text/html", out.ContentType)
}

func TestClassify_CustomMarker(t *testing.T) {
	resp := types.Response{FinalURL: "http://relay.test/out/abc", StatusCode: 200, Body: "b"}
	assert.Equal(t, types.NewRedirected("/out/abc", "b"), Classify(resp, "/out/"))
	assert.Equal(t, types.NewNetworkPending(), Classify(resp, "/resp/"))
}
