// Package bgremoval is the client for the external background-removal service.
package bgremoval

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/creative-compliance/internal/observability"
	"github.com/jonathan/creative-compliance/internal/render"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 60 * time.Second

// DefaultUserAgent is the user agent string for requests.
const DefaultUserAgent = "CreativeCompliance/1.0"

// MaxImageBytes is the largest upload the service accepts.
const MaxImageBytes = 10 << 20

// DefaultRetryDelays are the waits before each retry of a rate-limited request.
var DefaultRetryDelays = []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second}

// Options configures the client.
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	Headers     map[string]string
	RetryDelays []time.Duration
	HTTPClient  *http.Client
	Logger      *observability.Logger
	// Sleep waits between retries; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		RetryDelays: DefaultRetryDelays,
	}
}

// Client removes image backgrounds through the remote service.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	opts     *Options
	log      *observability.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

type request struct {
	ImageBase64 string `json:"image_base64"`
}

type response struct {
	Image string `json:"img_without_background_base64"`
}

// New creates a client for the service at endpoint.
func New(endpoint, apiKey string, opts *Options) (*Client, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &ServiceError{Kind: KindFatal, Message: fmt.Sprintf("invalid service URL %q", endpoint), Cause: err}
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.RetryDelays == nil {
		opts.RetryDelays = DefaultRetryDelays
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     httpClient,
		opts:     opts,
		log:      observability.OrNop(opts.Logger),
		sleep:    sleep,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RemoveBackground uploads an encoded image and returns the cut-out PNG bytes.
// Rate-limited requests are retried after each of the configured delays.
func (c *Client) RemoveBackground(ctx context.Context, image []byte) ([]byte, error) {
	if err := c.checkUpload(image); err != nil {
		observability.BackgroundRemovals.WithLabelValues("rejected").Inc()
		return nil, err
	}
	body, err := json.Marshal(request{ImageBase64: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return nil, &ServiceError{Kind: KindFatal, Message: "failed to encode request", Cause: err}
	}

	for attempt := 0; ; attempt++ {
		out, err := c.do(ctx, body)
		if err == nil {
			observability.BackgroundRemovals.WithLabelValues("ok").Inc()
			return out, nil
		}
		var se *ServiceError
		if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests || attempt >= len(c.opts.RetryDelays) {
			observability.BackgroundRemovals.WithLabelValues(outcomeLabel(err)).Inc()
			return nil, err
		}
		delay := c.opts.RetryDelays[attempt]
		c.log.Warn("background removal rate limited", "attempt", attempt+1, "retry_in", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func outcomeLabel(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusTooManyRequests {
			return "rate_limited"
		}
		return string(se.Kind)
	}
	return "error"
}

func (c *Client) checkUpload(image []byte) error {
	if c.apiKey == "" {
		return &ServiceError{Kind: KindFatal, Message: "background removal API key is not configured"}
	}
	if len(image) == 0 {
		return &ServiceError{Kind: KindFatal, Message: "empty image"}
	}
	if len(image) > MaxImageBytes {
		return &ServiceError{Kind: KindFatal, StatusCode: http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("image is %d bytes, limit is %d", len(image), MaxImageBytes)}
	}
	if mime, ok := render.DetectImage(image); !ok {
		return &ServiceError{Kind: KindFatal, StatusCode: http.StatusUnsupportedMediaType,
			Message: fmt.Sprintf("unsupported image type %s", mime)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ServiceError{Kind: KindFatal, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("X-API-Key", c.apiKey)
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ServiceError{Kind: KindTransient, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*MaxImageBytes))
	if err != nil {
		return nil, &ServiceError{Kind: KindTransient, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, data)
	}

	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ServiceError{Kind: KindFatal, StatusCode: resp.StatusCode, Message: "malformed response", Cause: err}
	}
	return decodeResult(out.Image)
}

func decodeResult(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, &ServiceError{Kind: KindFatal, Message: "response carries no image"}
	}
	var (
		img []byte
		err error
	)
	if strings.HasPrefix(encoded, "data:") {
		_, img, err = render.DecodeDataURL(encoded)
	} else {
		img, err = base64.StdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, &ServiceError{Kind: KindFatal, Message: "response image is not valid base64", Cause: err}
	}
	if mime, ok := render.DetectImage(img); !ok {
		return nil, &ServiceError{Kind: KindFatal, Message: fmt.Sprintf("response image has type %s", mime)}
	}
	return img, nil
}
