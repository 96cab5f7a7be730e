package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"checkout-service/internal/util"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// StatusError reports a non-2xx response from a collaborator service.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s service returned %d: %s", e.Service, e.Code, e.Body)
}

// Options configures a service client.
type Options struct {
	BaseURL        string
	RequestTimeout time.Duration
	MaxGetRetries  int
	Logger         *zap.Logger
}

// baseClient is the shared HTTP plumbing for the collaborator service clients.
// GETs are retried with bounded exponential backoff; mutations are sent once.
type baseClient struct {
	service       string
	baseURL       string
	httpClient    *http.Client
	maxGetRetries int
	logger        *zap.Logger
}

func newBaseClient(service string, opts Options) *baseClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := opts.MaxGetRetries
	if retries <= 0 {
		retries = 3
	}
	return &baseClient{
		service:       service,
		baseURL:       strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient:    &http.Client{Timeout: timeout},
		maxGetRetries: retries,
		logger:        logger,
	}
}

// getJSON issues a GET with retries and decodes the response body into out.
func (c *baseClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	operation := func() error {
		return c.doJSON(ctx, http.MethodGet, path, query, nil, out)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxGetRetries)), ctx)

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		// 4xx responses will not change on retry.
		var se *StatusError
		if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
			return backoff.Permanent(err)
		}
		c.logger.Warn("Retrying GET",
			zap.String("service", c.service),
			zap.String("path", path),
			zap.Error(err))
		return err
	}, policy)
}

func (c *baseClient) postJSON(ctx context.Context, path string, query url.Values, body, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, query, body, out)
}

func (c *baseClient) putJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.doJSON(ctx, http.MethodPut, path, nil, body, out)
}

func (c *baseClient) deleteJSON(ctx context.Context, path string, query url.Values) error {
	return c.doJSON(ctx, http.MethodDelete, path, query, nil, nil)
}

func (c *baseClient) doJSON(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.RemoteCallDuration.WithLabelValues(c.service, method+" "+path, "error").
			Observe(time.Since(start).Seconds())
		return fmt.Errorf("%s service request failed: %w", c.service, err)
	}
	defer resp.Body.Close()

	util.RemoteCallDuration.WithLabelValues(c.service, method+" "+path, strconv.Itoa(resp.StatusCode)).
		Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{Service: c.service, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s service returned invalid JSON: %w", c.service, err)
	}
	return nil
}
