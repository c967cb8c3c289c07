// Package fetch retrieves the body behind a URL for test harnesses that
// only care whether something answered and what it said.
//
// Every fetcher collapses failures into a nil result. A nil slice means
// "no output"; callers get no indication of whether the host was down,
// the client binary was missing or the transfer was cut short. A
// successful fetch with an empty body returns a non-nil empty slice.
package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// DefaultClient is the HTTP client binary invoked by ShellFetcher.
const DefaultClient = "curl"

// Fetcher returns the response body for url, or nil on any failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string) []byte
}

// ShellFetcher runs "<Client> <url>" through sh -c and returns its stdout.
//
// The URL is spliced into the shell command unescaped, so anything the
// caller passes is interpreted by the shell. Only feed it URLs the test
// suite controls.
type ShellFetcher struct {
	// Client is the command prefix, "curl" when empty. It may carry flags,
	// e.g. "curl -s --max-time 5".
	Client string

	// Logger receives the command and its stderr at debug level.
	Logger zerolog.Logger
}

// Fetch runs the client and returns its captured stdout, or nil if the
// shell could not be started or the command exited non-zero or was killed.
func (f *ShellFetcher) Fetch(ctx context.Context, url string) []byte {
	client := f.Client
	if client == "" {
		client = DefaultClient
	}
	command := client + " " + url

	// #nosec G204 -- shell invocation with caller input is the contract
	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		f.Logger.Debug().
			Str("command", command).
			Str("stderr", strings.TrimSpace(stderr.String())).
			Err(err).
			Msg("fetch failed")
		return nil
	}

	out := stdout.Bytes()
	if out == nil {
		out = []byte{}
	}
	return out
}

// NativeFetcher fetches in-process with net/http. Like curl without -f, a
// non-2xx response still yields its body; only transport and read errors
// produce nil.
type NativeFetcher struct {
	Client *http.Client
	Logger zerolog.Logger
}

// NewNativeFetcher builds a NativeFetcher whose transport negotiates
// HTTP/2 over TLS and falls back to HTTP/1.1. A zero timeout means no
// client-side deadline.
func NewNativeFetcher(timeout time.Duration, log zerolog.Logger) (*NativeFetcher, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, err
	}

	return &NativeFetcher{
		Client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		Logger: log,
	}, nil
}

// Fetch issues a GET and returns the body, or nil on any error.
func (f *NativeFetcher) Fetch(ctx context.Context, url string) []byte {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		f.Logger.Debug().Str("url", url).Err(err).Msg("fetch request invalid")
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		f.Logger.Debug().Str("url", url).Err(err).Msg("fetch failed")
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		f.Logger.Debug().Str("url", url).Err(err).Msg("fetch body read failed")
		return nil
	}
	f.Logger.Debug().Str("url", url).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("fetched")

	if body == nil {
		body = []byte{}
	}
	return body
}

// Fetch runs the default curl-based fetcher with a background context.
func Fetch(url string) []byte {
	f := &ShellFetcher{Logger: zerolog.Nop()}
	return f.Fetch(context.Background(), url)
}
