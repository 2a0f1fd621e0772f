package pages

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoshift/neppage/internal/domain"
)

type staticLookup struct {
	set *domain.TenantSet
}

func (l staticLookup) Pages() *domain.TenantSet { return l.set }

func (l staticLookup) PageByName(name string) (domain.TenantConfig, bool) {
	return l.set.ByName(name)
}

const root = "/srv/pages"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"local/index.html":     "local home",
		"local/about.html":     "local about",
		"shop/index.html":      "shop home",
		"shop/app.js":          "console.log(1)",
		"shop/docs/index.html": "docs home",
		"shop/empty/.keep":     "",
		"blog/post.html":       "post",
		"open/index.html":      "open home",
		"../secret.txt":        "secret",
	}
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, root+"/"+name, []byte(body), 0o644))
	}

	set := domain.NewTenantSet([]domain.TenantConfig{
		{ID: "p1", Name: "shop", Enabled: true, Fallback: "index.html"},
		{ID: "p2", Name: "blog", Enabled: true},
		{ID: "p3", Name: "open", Enabled: true, AllowLocal: true},
	})
	h := New(staticLookup{set: set}, fs, root, []string{"Pages.Local"})
	srv := httptest.NewServer(NewServer(h, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, method, path, host string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, nil)
	require.NoError(t, err)
	if host != "" {
		req.Host = host
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func TestServe(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		host       string
		wantStatus int
		wantBody   string
	}{
		{name: "root maps to local", path: "/", wantStatus: http.StatusOK, wantBody: "local home"},
		{name: "unknown tenant maps to local", path: "/about.html", wantStatus: http.StatusOK, wantBody: "local about"},
		{name: "tenant file", path: "/shop/app.js", host: "shop.example.com", wantStatus: http.StatusOK, wantBody: "console.log(1)"},
		{name: "tenant directory index", path: "/shop/", host: "shop.example.com", wantStatus: http.StatusOK, wantBody: "shop home"},
		{name: "tenant subdirectory index under fallback", path: "/shop/docs/", host: "shop.example.com", wantStatus: http.StatusOK, wantBody: "docs home"},
		{name: "tenant subdirectory without index", path: "/shop/empty/", host: "shop.example.com", wantStatus: http.StatusNotFound},
		{name: "fallback for missing file", path: "/shop/cart/42", host: "shop.example.com", wantStatus: http.StatusOK, wantBody: "shop home"},
		{name: "missing file without fallback", path: "/blog/nope.html", host: "blog.example.com", wantStatus: http.StatusNotFound},
		{name: "local host hides tenant", path: "/blog/post.html", host: "pages.local", wantStatus: http.StatusNotFound},
		{name: "local host with port hides tenant", path: "/blog/post.html", host: "pages.local:8080", wantStatus: http.StatusNotFound},
		{name: "other host serves tenant", path: "/blog/post.html", host: "blog.example.com", wantStatus: http.StatusOK, wantBody: "post"},
		{name: "allow local tenant on local host", path: "/open/", host: "pages.local", wantStatus: http.StatusOK, wantBody: "open home"},
		{name: "traversal stays inside root", path: "/../secret.txt", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, srv, http.MethodGet, tt.path, tt.host)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body)
			}
		})
	}
}

func TestServe_Head(t *testing.T) {
	srv := newTestServer(t)

	status, body := get(t, srv, http.MethodHead, "/shop/app.js", "shop.example.com")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)

	status, _ = get(t, srv, http.MethodHead, "/blog/missing", "blog.example.com")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServe_SecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/about.html")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", resp.Header.Get("Referrer-Policy"))
	assert.Empty(t, resp.Header.Get("X-Frame-Options"))
}

func TestServe_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	status, _ := get(t, srv, http.MethodPost, "/shop/app.js", "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}
