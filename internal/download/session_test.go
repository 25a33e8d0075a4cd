package download

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) listen(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *recorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func (r *recorder) statuses() []Status {
	var out []Status
	for _, st := range r.snapshot() {
		out = append(out, st.Status)
	}
	return out
}

type fakeDecoder struct {
	pages int
	err   error
}

func (f fakeDecoder) Decode(data []byte) (*Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Document{Data: data, Pages: f.pages, ContentType: "application/pdf"}, nil
}

// chunkedHandler writes body in chunks, flushing after each one. When
// declareLength is false the response is sent with chunked encoding and no
// Content-Length.
func chunkedHandler(body []byte, chunks int, declareLength bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if declareLength {
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		}
		step := len(body) / chunks
		for i := 0; i < len(body); i += step {
			end := i + step
			if end > len(body) {
				end = len(body)
			}
			_, _ = w.Write(body[i:end])
			w.(http.Flusher).Flush()
		}
	}
}

func waitSettled(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestSession_ProgressThenLoaded(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 4096)
	server := httptest.NewTLSServer(chunkedHandler(body, 4, true))
	defer server.Close()

	rec := &recorder{}
	s := NewSession("s1", server.URL+"/book.pdf", WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 3}), WithListener(rec.listen))

	require.True(t, s.Start(context.Background()))
	waitSettled(t, s)

	states := rec.snapshot()
	require.GreaterOrEqual(t, len(states), 3, "Downloading(0), at least one progress event, Loaded")

	assert.Equal(t, StatusDownloading, states[0].Status)
	assert.Zero(t, states[0].Progress)

	last := states[len(states)-1]
	assert.Equal(t, StatusLoaded, last.Status)
	require.NotNil(t, last.Document)
	assert.Equal(t, 3, last.Document.Pages)
	assert.Len(t, last.Document.Data, len(body))

	prev := 0.0
	for _, st := range states[:len(states)-1] {
		assert.Equal(t, StatusDownloading, st.Status)
		assert.GreaterOrEqual(t, st.Progress, prev, "progress never goes backwards")
		assert.LessOrEqual(t, st.Progress, 1.0)
		prev = st.Progress
	}
	assert.Equal(t, 1.0, prev)
}

func TestSession_UnknownLengthSkipsProgress(t *testing.T) {
	server := httptest.NewTLSServer(chunkedHandler(bytes.Repeat([]byte("y"), 2048), 4, false))
	defer server.Close()

	rec := &recorder{}
	s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}), WithListener(rec.listen))

	require.True(t, s.Start(context.Background()))
	waitSettled(t, s)

	assert.Equal(t, []Status{StatusDownloading, StatusLoaded}, rec.statuses())
	assert.Zero(t, rec.snapshot()[0].Progress)
}

func TestSession_DecodeFailure(t *testing.T) {
	server := httptest.NewTLSServer(chunkedHandler([]byte("not really a pdf"), 1, true))
	defer server.Close()

	s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{err: errors.New("bad magic")}))

	require.True(t, s.Start(context.Background()))
	waitSettled(t, s)

	st := s.State()
	assert.Equal(t, StatusFailed, st.Status)
	assert.Equal(t, "could not open document", st.Reason)
	assert.Nil(t, st.Document)
}

func TestSession_TransportFailure(t *testing.T) {
	t.Run("error status", func(t *testing.T) {
		server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}))
		require.True(t, s.Start(context.Background()))
		waitSettled(t, s)

		assert.Equal(t, StatusFailed, s.State().Status)
		assert.Equal(t, "download failed, check connection", s.State().Reason)
	})

	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewTLSServer(http.NotFoundHandler())
		url, client := server.URL, server.Client()
		server.Close()

		s := NewSession("s1", url, WithHTTPClient(client), WithDecoder(fakeDecoder{pages: 1}))
		require.True(t, s.Start(context.Background()))
		waitSettled(t, s)

		assert.Equal(t, StatusFailed, s.State().Status)
		assert.Equal(t, ReasonTransferFailed, s.State().Reason)
	})
}

func TestSession_StartOnlyFromIdle(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte("done"))
	}))
	defer server.Close()

	s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}))

	require.True(t, s.Start(context.Background()))
	assert.False(t, s.Start(context.Background()), "second start while downloading is refused")

	close(release)
	waitSettled(t, s)

	assert.False(t, s.Start(context.Background()), "terminal sessions cannot restart")
	assert.EqualValues(t, 1, requests.Load())
}

func TestSession_CancelReturnsToIdleAndSilencesTransfer(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	defer close(release)

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write(bytes.Repeat([]byte("a"), 100))
		w.(http.Flusher).Flush()
		if n == 1 {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		_, _ = w.Write(bytes.Repeat([]byte("b"), 900))
	}))
	defer server.Close()

	rec := &recorder{}
	s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 2}), WithListener(rec.listen))

	require.True(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return s.State().Progress > 0 }, 5*time.Second, time.Millisecond)

	s.Cancel()
	assert.Equal(t, StatusIdle, s.State().Status)
	eventsAtCancel := len(rec.snapshot())

	waitSettled(t, s)
	states := rec.snapshot()
	assert.Len(t, states, eventsAtCancel, "no events after cancel")
	assert.Equal(t, StatusIdle, states[len(states)-1].Status)
	assert.Equal(t, StatusIdle, s.State().Status)

	// Idle again, so a fresh transfer may start from zero.
	require.True(t, s.Start(context.Background()))
	restart := rec.snapshot()[eventsAtCancel]
	assert.Equal(t, StatusDownloading, restart.Status)
	assert.Zero(t, restart.Received)
	assert.Zero(t, restart.Progress)

	waitSettled(t, s)
	assert.Equal(t, StatusLoaded, s.State().Status)
	assert.Len(t, s.State().Document.Data, 1000, "bytes from the aborted transfer are discarded")
}

func TestSession_CancelIsNoopOutsideDownloading(t *testing.T) {
	server := httptest.NewTLSServer(chunkedHandler([]byte("pdf"), 1, true))
	defer server.Close()

	rec := &recorder{}
	s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}), WithListener(rec.listen))

	s.Cancel()
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, StatusIdle, s.State().Status)

	require.True(t, s.Start(context.Background()))
	waitSettled(t, s)
	before := len(rec.snapshot())

	s.Cancel()
	assert.Equal(t, StatusLoaded, s.State().Status)
	assert.Len(t, rec.snapshot(), before)
}

func TestSession_ParentContextCancelled(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}))
	require.True(t, s.Start(ctx))

	cancel()
	waitSettled(t, s)
	assert.Equal(t, StatusIdle, s.State().Status)
}

func TestSession_UpgradesInsecureScheme(t *testing.T) {
	server := httptest.NewTLSServer(chunkedHandler([]byte("secure bytes"), 1, true))
	defer server.Close()

	insecure := strings.Replace(server.URL, "https://", "http://", 1)
	s := NewSession("s1", insecure, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}))
	assert.Equal(t, server.URL, s.URL())

	require.True(t, s.Start(context.Background()))
	waitSettled(t, s)
	assert.Equal(t, StatusLoaded, s.State().Status)
}

func TestSession_Position(t *testing.T) {
	server := httptest.NewTLSServer(chunkedHandler([]byte("pdf"), 1, true))
	defer server.Close()

	s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 3}))
	assert.Equal(t, 5, s.SetPosition(5), "unclamped before the document is known")

	require.True(t, s.Start(context.Background()))
	waitSettled(t, s)

	assert.Zero(t, s.Position(), "a new transfer starts at the first page")
	assert.Equal(t, 2, s.SetPosition(10))
	assert.Equal(t, 2, s.Position())
	assert.Equal(t, 0, s.SetPosition(-3))
	assert.Equal(t, 1, s.SetPosition(1))
}

func TestSession_SlowTransferIsNotCutOff(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "10")
		for i := 0; i < 10; i++ {
			_, _ = w.Write([]byte("z"))
			w.(http.Flusher).Flush()
			time.Sleep(60 * time.Millisecond)
		}
	}))
	defer server.Close()

	s := NewSession("s1", server.URL, WithDecoder(fakeDecoder{pages: 1}))
	assert.Zero(t, s.client.Timeout, "the body read is bounded by the context, not the client")

	transport, ok := s.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, responseHeaderTimeout, transport.ResponseHeaderTimeout)

	// Same client, trusting the test certificate and with a header timeout
	// far shorter than the whole transfer.
	transport.TLSClientConfig = server.Client().Transport.(*http.Transport).TLSClientConfig
	transport.ResponseHeaderTimeout = 300 * time.Millisecond

	rec := &recorder{}
	s.listener = rec.listen
	require.True(t, s.Start(context.Background()))
	waitSettled(t, s)

	st := s.State()
	require.Equal(t, StatusLoaded, st.Status, st.Reason)
	assert.Len(t, st.Document.Data, 10)
	assert.Greater(t, len(rec.snapshot()), 10, "progress is reported for every chunk")
}

func TestSession_SizeLimit(t *testing.T) {
	body := bytes.Repeat([]byte("p"), 2048)

	t.Run("declared length over the limit", func(t *testing.T) {
		var served atomic.Int32
		server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			served.Add(1)
			chunkedHandler(body, 1, true)(w, r)
		}))
		defer server.Close()

		s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}), WithMaxSize(1024))
		require.True(t, s.Start(context.Background()))
		waitSettled(t, s)

		assert.Equal(t, StatusFailed, s.State().Status)
		assert.Equal(t, ReasonTransferFailed, s.State().Reason)
		assert.EqualValues(t, 1, served.Load())
	})

	t.Run("unknown length over the limit", func(t *testing.T) {
		server := httptest.NewTLSServer(chunkedHandler(body, 8, false))
		defer server.Close()

		s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}), WithMaxSize(1024))
		require.True(t, s.Start(context.Background()))
		waitSettled(t, s)

		assert.Equal(t, StatusFailed, s.State().Status)
		assert.Equal(t, ReasonTransferFailed, s.State().Reason)
		assert.Nil(t, s.State().Document)
	})

	t.Run("exactly at the limit", func(t *testing.T) {
		server := httptest.NewTLSServer(chunkedHandler(body, 8, false))
		defer server.Close()

		s := NewSession("s1", server.URL, WithHTTPClient(server.Client()), WithDecoder(fakeDecoder{pages: 1}), WithMaxSize(int64(len(body))))
		require.True(t, s.Start(context.Background()))
		waitSettled(t, s)

		assert.Equal(t, StatusLoaded, s.State().Status)
	})
}
