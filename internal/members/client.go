// Package members fetches member messages from the upstream messages API.
package members

import (
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

	"memberqa/internal/contextutil"
	"memberqa/internal/corpus"
)

const (
	DefaultPageSize = 500
	DefaultAttempts = 3
	DefaultTimeout  = 30 * time.Second
	userAgent       = "member-qa/1.0"
)

// paths are tried in order; some deployments only answer on the slash form.
var paths = []string{"/messages", "/messages/"}

// Client reads every message from the messages API.
type Client struct {
	BaseURL  string
	PageSize int
	Attempts int
	// Backoff is the wait before the second attempt; later attempts wait
	// proportionally longer.
	Backoff time.Duration
	client  *http.Client
}

// NewClient creates a messages API client.
func NewClient(baseURL string, pageSize, attempts int, timeout time.Duration) *Client {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		PageSize: pageSize,
		Attempts: attempts,
		Backoff:  500 * time.Millisecond,
		client:   &http.Client{Timeout: timeout},
	}
}

type page struct {
	Total int          `json:"total"`
	Items []rawMessage `json:"items"`
}

type rawMessage struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// statusError carries a non-200 reply.
type statusError struct {
	url    string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.url, e.status, e.body)
}

func (e *statusError) retryable() bool {
	return e.status >= 500 || e.status == http.StatusTooManyRequests
}

// FetchMessages returns every message across all pages. Each known path is
// tried in turn; the error of the last path is returned if none works.
func (c *Client) FetchMessages(ctx context.Context) ([]corpus.Message, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for _, p := range paths {
		msgs, err := c.fetchAll(ctx, c.BaseURL+p)
		if err == nil {
			logger.InfoContext(ctx, "fetched member messages", "path", p, "count", len(msgs))
			return msgs, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.WarnContext(ctx, "messages fetch failed", "url", c.BaseURL+p, "error", err)
		lastErr = err
	}
	return nil, fmt.Errorf("fetch messages: %w", lastErr)
}

func (c *Client) fetchAll(ctx context.Context, endpoint string) ([]corpus.Message, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var out []corpus.Message
	for skip := 0; ; {
		pg, err := c.fetchPage(ctx, endpoint, skip)
		if err != nil {
			return nil, err
		}
		for _, raw := range pg.Items {
			msg, err := raw.toMessage()
			if err != nil {
				logger.WarnContext(ctx, "skipping message with bad timestamp", "id", raw.ID, "error", err)
				continue
			}
			out = append(out, msg)
		}

		skip += len(pg.Items)
		if len(pg.Items) == 0 || len(pg.Items) < c.PageSize || (pg.Total > 0 && skip >= pg.Total) {
			return out, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, endpoint string, skip int) (page, error) {
	logger := contextutil.LoggerFromContext(ctx)

	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(c.PageSize))
	target := endpoint + "?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt < c.Attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt); err != nil {
				return page{}, err
			}
		}

		pg, err := c.get(ctx, target)
		if err == nil {
			return pg, nil
		}
		lastErr = err

		// Do not retry on cancellation or on 4xx replies
		if ctx.Err() != nil {
			return page{}, ctx.Err()
		}
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return page{}, err
		}
		logger.WarnContext(ctx, "messages page failed, retrying", "attempt", attempt+1, "error", err)
	}
	return page{}, lastErr
}

func (c *Client) get(ctx context.Context, target string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return page{}, &statusError{url: target, status: resp.StatusCode, body: string(raw)}
	}

	var pg page
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return page{}, fmt.Errorf("decode response: %w", err)
	}
	return pg, nil
}

// sleep waits attempt*Backoff or until ctx is done.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * c.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

// toMessage parses the timestamp; values without a zone are taken as UTC.
func (r rawMessage) toMessage() (corpus.Message, error) {
	ts, err := parseTimestamp(r.Timestamp)
	if err != nil {
		return corpus.Message{}, err
	}
	return corpus.Message{
		ID:        r.ID,
		UserID:    r.UserID,
		UserName:  strings.TrimSpace(r.UserName),
		Timestamp: ts,
		Text:      r.Message,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
