// Package remote calls the type prediction service over HTTP.
package remote

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/bastiangx/hintserve/pkg/inference"
	"github.com/charmbracelet/log"
)

const (
	DefaultURL     = "https://type4py.com/api/predict"
	DefaultTimeout = 60 * time.Second
)

var (
	ErrNotPython = errors.New("Cannot infer type annotations for non-Python code files.")
	ErrEmptyFile = errors.New("Cannot infer type annotations for empty files.")
)

// Options configures a Client.
type Options struct {
	URL               string
	Timeout           time.Duration
	FilterPredictions bool
	// Version is sent as the client version, empty omits it.
	Version string
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client posts source files to the prediction service.
type Client struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	filter   bool
	version  string
}

// New returns a client with defaults applied to zero options.
func New(opts Options) *Client {
	endpoint := strings.TrimSpace(opts.URL)
	if endpoint == "" {
		endpoint = DefaultURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		client:   client,
		endpoint: endpoint,
		timeout:  timeout,
		filter:   opts.FilterPredictions,
		version:  opts.Version,
	}
}

// Endpoint returns the configured service URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CheckSource rejects files the service cannot handle before any request is made.
func CheckSource(path, source string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyi":
	default:
		return ErrNotPython
	}
	// whitespace only files still go to the service
	if len(source) == 0 {
		return ErrEmptyFile
	}
	return nil
}

// Infer sends source for path and returns the decoded payload.
// A payload carrying an error string is returned as *inference.ServiceError.
func (c *Client) Infer(ctx context.Context, path, source string) (*inference.Payload, error) {
	if err := CheckSource(path, source); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint, err := c.requestURL(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading inference response: %w", err)
	}
	log.Debugf("Inference for %s took %v (%d bytes)", filepath.Base(path), time.Since(start), len(raw))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inference request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	payload, err := inference.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if _, err := payload.Result(); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) requestURL(path string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid inference url %q: %w", c.endpoint, err)
	}
	q := u.Query()
	q.Set("tc", "0")
	if c.filter {
		q.Set("fp", "1")
	} else {
		q.Set("fp", "0")
	}
	q.Set("fh", PathHash(path))
	if c.version != "" {
		q.Set("ev", c.version)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PathHash returns the hex sha256 of path, sent instead of the path itself.
func PathHash(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}
