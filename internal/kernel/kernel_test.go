package kernel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/view"
)

type fakeViews map[string]*view.View

func (f fakeViews) Load(avID string) (*view.View, error) {
	v, ok := f[avID]
	if !ok {
		return nil, view.ErrNotFound
	}
	return v, nil
}

func testViews() fakeViews {
	return fakeViews{
		"av1": {
			AvID:   "av1",
			ViewID: "v1",
			Name:   "Tasks",
			Kind:   view.KindTable,
			Columns: []*view.Column{
				{ID: "name", Name: "Name", Type: av.TypeBlock},
				{ID: "total", Name: "Total", Type: av.TypeTemplate, Template: "{{.price}} x {{.qty}}"},
			},
		},
		"av2": {
			AvID:   "av2",
			ViewID: "g1",
			Kind:   view.KindGallery,
			Columns: []*view.Column{
				{ID: "label", Type: av.TypeTemplate, Template: "{{.name}}"},
			},
		},
	}
}

func newTestServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewServer(testViews(), token, logger))
	t.Cleanup(srv.Close)
	return srv
}

func TestRenderAttributeViewRoundTrip(t *testing.T) {
	srv := newTestServer(t, "secret")
	c := NewClient(srv.URL+"/", "secret", time.Second)

	tmpls, err := c.RenderAttributeView(context.Background(), "av1", "v1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"total": "{{.price}} x {{.qty}}"}, tmpls)
}

func TestRenderAttributeViewGalleryFields(t *testing.T) {
	srv := newTestServer(t, "")
	c := NewClient(srv.URL, "", time.Second)

	tmpls, err := c.RenderAttributeView(context.Background(), "av2", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"label": "{{.name}}"}, tmpls)
}

func TestRenderAttributeViewErrors(t *testing.T) {
	srv := newTestServer(t, "secret")

	t.Run("not found", func(t *testing.T) {
		c := NewClient(srv.URL, "secret", time.Second)
		_, err := c.RenderAttributeView(context.Background(), "missing", "")
		var kerr *Error
		require.True(t, errors.As(err, &kerr))
		assert.Equal(t, -1, kerr.Code)
		assert.Contains(t, kerr.Msg, "not found")
	})

	t.Run("wrong view", func(t *testing.T) {
		c := NewClient(srv.URL, "secret", time.Second)
		_, err := c.RenderAttributeView(context.Background(), "av1", "other")
		require.Error(t, err)
	})

	t.Run("bad token", func(t *testing.T) {
		c := NewClient(srv.URL, "nope", time.Second)
		_, err := c.RenderAttributeView(context.Background(), "av1", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("canceled", func(t *testing.T) {
		c := NewClient(srv.URL, "secret", time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.RenderAttributeView(ctx, "av1", "")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestClientSendsRequest(t *testing.T) {
	var gotAuth, gotBody, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = io.WriteString(w, `{"code":0,"msg":"","data":{"view":{"columns":[{"id":"c1","template":"x"},{"id":"c2"}]}}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	tmpls, err := c.RenderAttributeView(context.Background(), "av9", "v9")
	require.NoError(t, err)

	assert.Equal(t, "Token tok", gotAuth)
	assert.Equal(t, renderPath, gotPath)
	assert.JSONEq(t, `{"id":"av9","viewID":"v9"}`, gotBody)
	assert.Equal(t, map[string]string{"c1": "x"}, tmpls)
}

func TestClientMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).RenderAttributeView(context.Background(), "av1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestServerMiddleware(t *testing.T) {
	srv := newTestServer(t, "")

	before := testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	after := testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))
	assert.Equal(t, before+1, after)
}

func TestServerMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, "")

	resp, err := http.Post(srv.URL+renderPath, "application/json", strings.NewReader(`{"id":"av1"}`))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "attrview_requests_total")
}

func TestServerInvalidRequest(t *testing.T) {
	srv := newTestServer(t, "")

	resp, err := http.Post(srv.URL+renderPath, "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"code":-1,"msg":"invalid request","data":null}`, string(body))
}
