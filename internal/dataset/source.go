package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jlaffaye/ftp"

	"github.com/lox/crimelens/internal/httputil"
)

// Source yields the raw CSV bytes of the dataset.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// SourceOptions tunes remote fetching.
type SourceOptions struct {
	HTTPClient     *http.Client
	Timeout        time.Duration
	MaxElapsedTime time.Duration
}

// ParseSource resolves a dataset location. Bare paths and file:// URLs are
// read from disk; http(s):// and ftp:// are fetched once with backoff.
func ParseSource(raw string, opts SourceOptions) (Source, error) {
	if raw == "" {
		return nil, fmt.Errorf("dataset location is empty")
	}
	if opts.Timeout == 0 {
		opts.Timeout = httputil.DefaultTimeout
	}
	if opts.MaxElapsedTime == 0 {
		opts.MaxElapsedTime = 2 * time.Minute
	}

	if !strings.Contains(raw, "://") {
		return FileSource(raw), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse dataset url: %w", err)
	}
	switch u.Scheme {
	case "file":
		return FileSource(u.Path), nil
	case "http", "https":
		client := opts.HTTPClient
		if client == nil {
			client = httputil.NewClient(opts.Timeout)
		}
		return &HTTPSource{URL: u.String(), Client: client, MaxElapsedTime: opts.MaxElapsedTime}, nil
	case "ftp":
		return &FTPSource{URL: u, Timeout: opts.Timeout, MaxElapsedTime: opts.MaxElapsedTime}, nil
	default:
		return nil, fmt.Errorf("unsupported dataset scheme %q", u.Scheme)
	}
}

// FileSource reads the dataset from a local path.
type FileSource string

func (f FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(string(f))
}

func (f FileSource) String() string { return string(f) }

// HTTPSource downloads the dataset over HTTP.
type HTTPSource struct {
	URL            string
	Client         *http.Client
	MaxElapsedTime time.Duration
}

func (h *HTTPSource) String() string { return h.URL }

func (h *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := h.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("fetch dataset: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch dataset: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("fetch dataset: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	if err := backoff.Retry(operation, newBackOff(ctx, h.MaxElapsedTime)); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// FTPSource downloads the dataset from an FTP server. Anonymous login is
// used when the URL carries no credentials.
type FTPSource struct {
	URL            *url.URL
	Timeout        time.Duration
	MaxElapsedTime time.Duration
}

func (f *FTPSource) String() string { return f.URL.Redacted() }

func (f *FTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	host := f.URL.Host
	if f.URL.Port() == "" {
		host += ":21"
	}
	user, pass := "anonymous", "anonymous"
	if f.URL.User != nil {
		user = f.URL.User.Username()
		if p, ok := f.URL.User.Password(); ok {
			pass = p
		}
	}

	var body []byte
	operation := func() error {
		conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.Timeout), ftp.DialWithContext(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("ftp dial: %w", err)
		}
		defer conn.Quit()

		if err := conn.Login(user, pass); err != nil {
			return backoff.Permanent(fmt.Errorf("ftp login: %w", err))
		}

		resp, err := conn.Retr(f.URL.Path)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("ftp retr %s: %w", f.URL.Path, err))
		}
		defer resp.Close()

		body, err = io.ReadAll(resp)
		if err != nil {
			return fmt.Errorf("ftp read: %w", err)
		}
		return nil
	}

	if err := backoff.Retry(operation, newBackOff(ctx, f.MaxElapsedTime)); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func newBackOff(ctx context.Context, maxElapsed time.Duration) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	return backoff.WithContext(bo, ctx)
}
