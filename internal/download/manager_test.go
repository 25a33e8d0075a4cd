package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockingServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)
	return server
}

func TestManager_OpenReplacesSessionForSameReference(t *testing.T) {
	server := blockingServer(t)
	m := NewManager(WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}))

	first := m.Open(server.URL + "/a.pdf")
	require.True(t, first.Start(context.Background()))
	require.Eventually(t, func() bool { return first.State().Received > 0 }, 5*time.Second, time.Millisecond)

	second := m.Open(server.URL + "/a.pdf")
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, StatusIdle, first.State().Status, "the replaced session is cancelled")
	assert.Equal(t, StatusIdle, second.State().Status)

	_, err := m.Get(first.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := m.Get(second.ID())
	require.NoError(t, err)
	assert.Same(t, second, got)

	other := m.Open(server.URL + "/b.pdf")
	assert.Equal(t, 2, m.Len())
	assert.NotEqual(t, second.ID(), other.ID())
}

func TestManager_CloseAndCloseAll(t *testing.T) {
	server := blockingServer(t)
	m := NewManager(WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}))

	a := m.Open(server.URL + "/a.pdf")
	b := m.Open(server.URL + "/b.pdf")
	require.True(t, a.Start(context.Background()))
	require.True(t, b.Start(context.Background()))

	require.NoError(t, m.Close(a.ID()))
	assert.Equal(t, StatusIdle, a.State().Status)
	assert.ErrorIs(t, m.Close(a.ID()), ErrNotFound)
	assert.Equal(t, 1, m.Len())

	m.CloseAll()
	assert.Zero(t, m.Len())
	assert.Equal(t, StatusIdle, b.State().Status)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Wait(ctx))
	require.NoError(t, b.Wait(ctx))
}

func TestManager_NormalizesReference(t *testing.T) {
	m := NewManager()

	first := m.Open("http://example.org/book.pdf")
	second := m.Open("https://example.org/book.pdf")

	assert.Equal(t, "https://example.org/book.pdf", first.URL())
	assert.Equal(t, 1, m.Len(), "both references name the same document")
	_, err := m.Get(second.ID())
	assert.NoError(t, err)
}
