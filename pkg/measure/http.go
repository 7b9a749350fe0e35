package measure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/collage/pkg/cache"
	"github.com/matzehuels/collage/pkg/collage"
	errs "github.com/matzehuels/collage/pkg/errors"
)

const httpTimeout = 10 * time.Second

// HTTP measures images served under BaseURL. Absolute http(s) paths are
// fetched as-is. Only the image header is read before the body is closed.
type HTTP struct {
	BaseURL string
	Client  *http.Client
	Headers map[string]string
}

// NewHTTP creates an HTTP measurer with a default client.
func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: httpTimeout},
	}
}

// Measure fetches path and decodes its header. Network errors and 5xx
// responses are retried with backoff within ctx.
func (h *HTTP) Measure(ctx context.Context, path string) (size collage.Size, err error) {
	start := time.Now()
	defer func() { report(ctx, "http", start, err) }()

	target, err := h.resolve(path)
	if err != nil {
		return collage.Size{}, err
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		var ferr error
		size, ferr = h.fetch(ctx, target, path)
		return ferr
	})
	return size, err
}

func (h *HTTP) resolve(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path, errs.ValidateURL(path)
	}
	if err := errs.ValidatePath(path); err != nil {
		return "", err
	}
	base, err := url.Parse(h.BaseURL)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidInput, err, "base url %q", h.BaseURL)
	}
	return base.JoinPath(strings.TrimPrefix(path, "/")).String(), nil
}

func (h *HTTP) fetch(ctx context.Context, target, path string) (collage.Size, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return collage.Size{}, err
	}
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return collage.Size{}, ctx.Err()
		}
		return collage.Size{}, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return collage.Size{}, err
	}
	return decodeSize(resp.Body, path)
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return cache.ErrNotFound
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", cache.ErrNetwork, code)
	}
}

var _ collage.Measurer = (*HTTP)(nil)
