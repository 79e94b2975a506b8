package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stackbundle/partnerhub/internal/ratelimit"
)

const (
	defaultBaseURL = "https://api.resend.com"

	// Resend allows roughly one mutating call per two seconds across
	// the whole account, so the bucket is shared by every instance.
	bucketKey   = "resend:global"
	bucketRate  = 0.5
	bucketBurst = 1
)

// DNSRecord is one record Resend asks the partner to publish.
type DNSRecord struct {
	Record   string `json:"record"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	TTL      string `json:"ttl"`
	Priority int    `json:"priority,omitempty"`
	Status   string `json:"status"`
}

// Domain is a sending domain as Resend reports it.
type Domain struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Status  string      `json:"status"`
	Records []DNSRecord `json:"records"`
}

// ResendClient talks to the Resend HTTP API for transactional mail and
// sending-domain management.
type ResendClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	limiter *ratelimit.TokenBucket
}

func NewResend(apiKey string, limiter *ratelimit.TokenBucket) *ResendClient {
	return &ResendClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
	}
}

// WithBaseURL points the client at a different endpoint, used in tests.
func (c *ResendClient) WithBaseURL(url string) *ResendClient {
	c.baseURL = url
	return c
}

func (c *ResendClient) Send(ctx context.Context, from string, to []string, subject string, htmlBody string) error {
	payload := map[string]any{
		"from":    from,
		"to":      to,
		"subject": subject,
		"html":    htmlBody,
	}
	return c.do(ctx, http.MethodPost, "/emails", payload, nil)
}

func (c *ResendClient) CreateDomain(ctx context.Context, name string) (Domain, error) {
	var out Domain
	err := c.do(ctx, http.MethodPost, "/domains", map[string]any{"name": name}, &out)
	return out, err
}

func (c *ResendClient) VerifyDomain(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/domains/"+id+"/verify", nil, nil)
}

func (c *ResendClient) GetDomain(ctx context.Context, id string) (Domain, error) {
	var out Domain
	err := c.do(ctx, http.MethodGet, "/domains/"+id, nil, &out)
	return out, err
}

// do runs one API call through the shared token bucket. A 429 response
// gets exactly one retry after the bucket admits again.
func (c *ResendClient) do(ctx context.Context, method, path string, payload any, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	status, err := c.roundTrip(ctx, method, path, payload, out)
	if err != nil && status == http.StatusTooManyRequests {
		if err := c.wait(ctx); err != nil {
			return err
		}
		_, err = c.roundTrip(ctx, method, path, payload, out)
	}
	return err
}

func (c *ResendClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx, bucketKey, bucketRate, bucketBurst)
}

func (c *ResendClient) roundTrip(ctx context.Context, method, path string, payload any, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, fmt.Errorf("resend: %s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("resend: decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}
