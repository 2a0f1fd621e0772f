package nepq

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acoshift/neppage/internal/domain"
)

type recorded struct {
	body        string
	contentType string
	auth        string
	ifNoneMatch string
}

type fakeStore struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, body string, etag string)
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		body:        string(b),
		contentType: r.Header.Get("Content-Type"),
		auth:        r.Header.Get("Authorization"),
		ifNoneMatch: r.Header.Get("If-None-Match"),
	})
	f.mu.Unlock()
	f.handler(w, string(b), r.Header.Get("If-None-Match"))
}

func (f *fakeStore) snapshot() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func (f *fakeStore) bodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.body
	}
	return out
}

func newTestClient(t *testing.T, store *fakeStore) *Client {
	t.Helper()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/neppage", base64.StdEncoding.EncodeToString([]byte("secret")))
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidToken(t *testing.T) {
	_, err := NewClient("http://localhost", "not base64!")
	assert.Error(t, err)
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	_, err := NewClient("", "")
	assert.Error(t, err)
}

func TestClient_Fetch_SendsHeaders(t *testing.T) {
	store := &fakeStore{handler: func(w http.ResponseWriter, _ string, _ string) {
		w.Header().Set("ETag", `"v2"`)
		_, _ = w.Write([]byte(`[]`))
	}}
	c := newTestClient(t, store)

	res, err := c.Fetch(context.Background(), "list configs", `"v1"`)
	require.NoError(t, err)

	assert.Equal(t, `"v2"`, res.ETag)
	assert.Equal(t, "[]", string(res.Body))
	reqs := store.snapshot()
	require.Len(t, reqs, 1)
	assert.Equal(t, "list configs", reqs[0].body)
	assert.Equal(t, ContentType, reqs[0].contentType)
	assert.Equal(t, "Bearer secret", reqs[0].auth)
	assert.Equal(t, `"v1"`, reqs[0].ifNoneMatch)
}

func TestClient_Fetch_NoEtagHeaderWhenEmpty(t *testing.T) {
	store := &fakeStore{handler: func(w http.ResponseWriter, _ string, _ string) {
		_, _ = w.Write([]byte(`[]`))
	}}
	c := newTestClient(t, store)

	_, err := c.Fetch(context.Background(), "list configs", "")
	require.NoError(t, err)
	assert.Empty(t, store.snapshot()[0].ifNoneMatch)
}

func TestClient_Fetch_NotModified(t *testing.T) {
	store := &fakeStore{handler: func(w http.ResponseWriter, _ string, _ string) {
		w.WriteHeader(http.StatusNotModified)
	}}
	c := newTestClient(t, store)

	res, err := c.Fetch(context.Background(), "list configs", `"v1"`)
	require.NoError(t, err)
	assert.True(t, res.NotModified)
	assert.Equal(t, `"v1"`, res.ETag)
}

func TestClient_Fetch_ErrorStatus(t *testing.T) {
	store := &fakeStore{handler: func(w http.ResponseWriter, _ string, _ string) {
		w.WriteHeader(http.StatusInternalServerError)
	}}
	c := newTestClient(t, store)

	_, err := c.Fetch(context.Background(), "list configs", "")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestClient_Fetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, "")
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), "list configs", "")
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestClient_Exec(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	store := &fakeStore{handler: func(w http.ResponseWriter, _ string, _ string) {
		w.WriteHeader(int(status.Load()))
	}}
	c := newTestClient(t, store)

	require.NoError(t, c.Exec(context.Background(), `delete files("f1"){}`))

	status.Store(http.StatusBadRequest)
	err := c.Exec(context.Background(), `delete files("f1"){}`)
	assert.ErrorIs(t, err, domain.ErrMutationFailed)
	assert.Contains(t, err.Error(), "delete files")
}
