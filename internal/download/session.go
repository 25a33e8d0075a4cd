// Package download drives cancellable document transfers.
//
// A Session walks Idle -> Downloading -> Loaded | Failed. Cancel returns a
// downloading session to Idle and guarantees that nothing from the aborted
// transfer is observed afterwards.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mrlokans/shelfstream/internal/catalog"
)

const (
	// MaxDocumentSize bounds how much of a document is buffered in memory.
	MaxDocumentSize = 200 << 20

	// responseHeaderTimeout bounds the wait for the server to start
	// answering. The body itself is only bounded by ctx and Cancel.
	responseHeaderTimeout = 30 * time.Second
)

// newHTTPClient returns the client used for document transfers. It has no
// overall timeout so slow but steady transfers are not cut off.
func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = responseHeaderTimeout
	return &http.Client{Transport: transport}
}

// Listener receives every state change. It is called synchronously with the
// session's emit lock held and must not call back into the session.
type Listener func(State)

type Option func(*Session)

func WithHTTPClient(client *http.Client) Option {
	return func(s *Session) {
		if client != nil {
			s.client = client
		}
	}
}

func WithDecoder(decoder Decoder) Option {
	return func(s *Session) {
		if decoder != nil {
			s.decoder = decoder
		}
	}
}

// WithMaxSize overrides MaxDocumentSize.
func WithMaxSize(n int64) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

func WithListener(listener Listener) Option {
	return func(s *Session) {
		s.listener = listener
	}
}

// Session is the download of one document reference.
type Session struct {
	id       string
	url      string
	client   *http.Client
	decoder  Decoder
	listener Listener
	maxSize  int64

	// emitMu serialises state publication so Cancel can fence off stale
	// transfers; mu guards the fields below.
	emitMu   sync.Mutex
	mu       sync.Mutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	done     chan struct{}
	position int
}

// NewSession creates an idle session for rawURL.
func NewSession(id, rawURL string, opts ...Option) *Session {
	s := &Session{
		id:      id,
		url:     catalog.SecureURL(rawURL),
		client:  newHTTPClient(),
		decoder: PDFDecoder{},
		maxSize: MaxDocumentSize,
		state:   idleState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string  { return s.id }
func (s *Session) URL() string { return s.url }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins the transfer. It only acts from Idle and reports whether a
// transfer was started. The transfer runs on its own goroutine and ends when
// ctx is done, Cancel is called or the document settles.
func (s *Session) Start(ctx context.Context) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.state.Status != StatusIdle {
		s.mu.Unlock()
		return false
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.state = downloadingState(0, 0)
	s.position = 0
	st := s.state
	s.mu.Unlock()

	s.notify(st)

	go func() {
		defer close(done)
		defer cancel()
		s.transfer(ctx, gen)
	}()
	return true
}

// Cancel aborts a running transfer and returns the session to Idle. It is a
// no-op in any other state.
func (s *Session) Cancel() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.state.Status != StatusDownloading {
		s.mu.Unlock()
		return
	}
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	s.state = idleState()
	st := s.state
	s.mu.Unlock()

	log.Printf("[DOWNLOAD] Session %s cancelled", s.id)
	s.notify(st)
}

// Wait blocks until the most recent transfer goroutine has exited.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetPosition records the reader's current page. Once a document is loaded
// the page is clamped to its range.
func (s *Session) SetPosition(page int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page < 0 {
		page = 0
	}
	if s.state.Status == StatusLoaded && s.state.Document != nil && s.state.Document.Pages > 0 {
		if page > s.state.Document.Pages-1 {
			page = s.state.Document.Pages - 1
		}
	}
	s.position = page
	return page
}

func (s *Session) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *Session) transfer(ctx context.Context, gen uint64) {
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		log.Printf("[DOWNLOAD] Session %s: invalid url %q: %v", s.id, s.url, err)
		s.publish(gen, failedState(ReasonTransferFailed))
		return
	}
	req.Header.Set("User-Agent", catalog.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.transferError(ctx, gen, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.transferError(ctx, gen, fmt.Errorf("unexpected status code %d", resp.StatusCode))
		return
	}

	if resp.ContentLength > s.maxSize {
		log.Printf("[DOWNLOAD] Session %s: document is %s, limit is %s", s.id,
			humanize.Bytes(uint64(resp.ContentLength)), humanize.Bytes(uint64(s.maxSize)))
		s.publish(gen, failedState(ReasonTransferFailed))
		return
	}

	counter := &progressCounter{
		expected: resp.ContentLength,
		onProgress: func(received, expected int64) {
			s.publish(gen, downloadingState(received, expected))
		},
	}

	data, err := io.ReadAll(io.TeeReader(io.LimitReader(resp.Body, s.maxSize+1), counter))
	if err != nil {
		s.transferError(ctx, gen, err)
		return
	}
	if int64(len(data)) > s.maxSize {
		log.Printf("[DOWNLOAD] Session %s: document exceeds %s", s.id, humanize.Bytes(uint64(s.maxSize)))
		s.publish(gen, failedState(ReasonTransferFailed))
		return
	}

	doc, err := s.decoder.Decode(data)
	if err != nil {
		log.Printf("[DOWNLOAD] Session %s: decode failed: %v", s.id, err)
		s.publish(gen, failedState(ReasonDecodeFailed))
		return
	}

	if s.publish(gen, State{Status: StatusLoaded, Progress: 1, Received: int64(len(data)), Expected: resp.ContentLength, Document: doc}) {
		log.Printf("[DOWNLOAD] Session %s: loaded %s (%d pages) in %s",
			s.id, humanize.Bytes(uint64(len(data))), doc.Pages, time.Since(started).Round(time.Millisecond))
	}
}

func (s *Session) transferError(ctx context.Context, gen uint64, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		// Cancelled through the caller's context rather than Cancel.
		s.publish(gen, idleState())
		return
	}
	log.Printf("[DOWNLOAD] Session %s: transfer failed: %v", s.id, err)
	s.publish(gen, failedState(ReasonTransferFailed))
}

// publish stores and emits st unless the transfer identified by gen has been
// superseded. It reports whether st was published.
func (s *Session) publish(gen uint64, st State) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if gen != s.gen || s.state.Status != StatusDownloading {
		s.mu.Unlock()
		return false
	}
	s.state = st
	s.mu.Unlock()

	s.notify(st)
	return true
}

func (s *Session) notify(st State) {
	if s.listener != nil {
		s.listener(st)
	}
}

// progressCounter reports received bytes as they pass through a TeeReader.
// Nothing is reported when the expected length is unknown.
type progressCounter struct {
	expected   int64
	received   int64
	onProgress func(received, expected int64)
}

func (pc *progressCounter) Write(p []byte) (int, error) {
	n := len(p)
	pc.received += int64(n)
	if pc.expected > 0 && pc.onProgress != nil {
		pc.onProgress(pc.received, pc.expected)
	}
	return n, nil
}
