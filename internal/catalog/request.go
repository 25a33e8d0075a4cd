package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout applies to every provider request unless overridden.
	DefaultTimeout = 60 * time.Second

	UserAgent = "Shelfstream/1.0 (https://github.com/mrlokans/shelfstream)"
)

// Option configures a provider client.
type Option func(*options)

type options struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// WithBaseURL points the client at a different endpoint (tests, mirrors).
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithTimeout sets the per-request timeout. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. The timeout option is
// ignored when a client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// Resolve applies opts over the given default base URL and returns the
// base URL and HTTP client to use. Exposed for clients in sibling packages.
func Resolve(defaultBaseURL string, opts ...Option) (string, *http.Client) {
	o := &options{
		baseURL: defaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	return o.baseURL, o.httpClient
}

// BuildURL joins base with query parameters, failing with KindInvalidURL.
func BuildURL(op, base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = fmt.Errorf("missing scheme or host in %q", base)
		}
		return "", newError(KindInvalidURL, op, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchJSON issues a single GET and decodes the JSON body into out.
// Failures are reported as *Error with the matching Kind.
func FetchJSON(ctx context.Context, client *http.Client, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return newError(KindInvalidURL, op, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return newError(KindUnknown, op, err)
		}
		return newError(KindRequestFailed, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e := newError(KindRequestFailed, op, fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))))
		e.StatusCode = resp.StatusCode
		return e
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newError(KindDecodingFailed, op, err)
	}
	return nil
}

// SecureURL rewrites an http:// URL to https://. Other URLs are returned as is.
func SecureURL(u string) string {
	u = strings.TrimSpace(u)
	if len(u) >= 7 && strings.EqualFold(u[:7], "http://") {
		return "https://" + u[7:]
	}
	return u
}
