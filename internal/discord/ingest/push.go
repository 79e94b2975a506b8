package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stackbundle/partnerhub/internal/analytics/domain"
)

// ErrServerError marks a 5xx response from the analytics API, which
// triggers the delete-and-retry fallback.
var ErrServerError = errors.New("analytics server error")

// Pusher is where daily rollups land.
type Pusher interface {
	Upsert(ctx context.Context, date string, rows []domain.Row) error
	DeleteDate(ctx context.Context, date string) error
}

// AnalyticsClient pushes rollups to the internal analytics HTTP API
// with bearer-token auth.
type AnalyticsClient struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewAnalyticsClient(baseURL, token string) *AnalyticsClient {
	return &AnalyticsClient{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

type upsertPayload struct {
	Date string       `json:"date"`
	Rows []domain.Row `json:"rows"`
}

func (c *AnalyticsClient) Upsert(ctx context.Context, date string, rows []domain.Row) error {
	return c.do(ctx, http.MethodPost, upsertPayload{Date: date, Rows: rows})
}

func (c *AnalyticsClient) DeleteDate(ctx context.Context, date string) error {
	return c.do(ctx, http.MethodDelete, upsertPayload{Date: date})
}

func (c *AnalyticsClient) do(ctx context.Context, method string, payload upsertPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/discord/analytics", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: %s %s: status %d", ErrServerError, method, payload.Date, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("analytics: %s %s: status %d: %s", method, payload.Date, resp.StatusCode, body)
	}
	return nil
}
