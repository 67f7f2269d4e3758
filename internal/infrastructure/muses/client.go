package muses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/basel-ax/museframe/internal/domain"
)

const (
	// maxImageSize caps a single image download
	maxImageSize = 32 << 20
	// maxErrorBody caps how much of an error body ends up in the error message
	maxErrorBody = 512
)

// ErrUnexpectedStatus is returned for any non-200 response
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Options configures the client
type Options struct {
	EntryURL string
	Timeout  time.Duration
	// RetryMax is the number of extra attempts per request; 0 means one request only
	RetryMax int
	Logger   *zap.SugaredLogger
}

// Client talks to the muses entry endpoint and fetches entry images
type Client struct {
	httpClient *retryablehttp.Client
	entryURL   string
}

var (
	_ domain.EntryFetcher    = (*Client)(nil)
	_ domain.ImageDownloader = (*Client)(nil)
)

// NewClient creates a new muses API client
func NewClient(opts Options) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = opts.RetryMax
	httpClient.RetryWaitMin = 1 * time.Second
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.HTTPClient.Timeout = opts.Timeout

	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	httpClient.Logger = &retryLogger{log: log}

	return &Client{
		httpClient: httpClient,
		entryURL:   opts.EntryURL,
	}
}

// FetchEntry requests the current prompt/image pair
func (c *Client) FetchEntry(ctx context.Context) (*domain.Entry, error) {
	resp, err := c.get(ctx, c.entryURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entry domain.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}

	return &entry, nil
}

// DownloadImage fetches the raw bytes behind an image URL
func (c *Client) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("image url is empty")
	}

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageSize)
	}

	return data, nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: %d, body: %s", ErrUnexpectedStatus, resp.StatusCode, string(body))
	}

	return resp, nil
}

// retryLogger adapts zap to the interface required by retryablehttp
type retryLogger struct {
	log *zap.SugaredLogger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Infow(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warnw(msg, keysAndValues...)
}
