package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://discord.com/api/v10"

type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

type Member struct {
	User     User      `json:"user"`
	Roles    []string  `json:"roles"`
	JoinedAt time.Time `json:"joined_at"`
}

type EmbedField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Fields      []EmbedField `json:"fields"`
}

type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Embeds    []Embed   `json:"embeds"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is a minimal Discord REST v10 bot client covering the guild
// and channel reads the ingest pipeline needs.
type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL points the client at a different endpoint, used in tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

func (c *Client) Roles(ctx context.Context, guildID string) ([]Role, error) {
	var roles []Role
	err := c.get(ctx, fmt.Sprintf("/guilds/%s/roles", guildID), &roles)
	return roles, err
}

// Members returns one page of guild members ordered by user id. Pass
// the last user id of the previous page as after; limit caps at 1000.
func (c *Client) Members(ctx context.Context, guildID, after string, limit int) ([]Member, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if after != "" {
		q.Set("after", after)
	}

	var members []Member
	err := c.get(ctx, fmt.Sprintf("/guilds/%s/members?%s", guildID, q.Encode()), &members)
	return members, err
}

// Messages returns the most recent channel messages, newest first.
func (c *Client) Messages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var messages []Message
	err := c.get(ctx, fmt.Sprintf("/channels/%s/messages?limit=%d", channelID, limit), &messages)
	return messages, err
}

// get runs one authenticated request. A 429 gets a single retry after
// the advertised delay.
func (c *Client) get(ctx context.Context, path string, out any) error {
	status, retryAfter, err := c.roundTrip(ctx, path, out)
	if err == nil || status != http.StatusTooManyRequests {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(retryAfter):
	}
	_, _, err = c.roundTrip(ctx, path, out)
	return err
}

func (c *Client) roundTrip(ctx context.Context, path string, out any) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp)
		return resp.StatusCode, retryAfter, fmt.Errorf("discord: GET %s: rate limited", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, 0, fmt.Errorf("discord: GET %s: status %d: %s", path, resp.StatusCode, raw)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, 0, fmt.Errorf("discord: decode GET %s: %w", path, err)
	}
	return resp.StatusCode, 0, nil
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("X-RateLimit-Reset-After"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}

	var body struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.RetryAfter > 0 {
		return time.Duration(body.RetryAfter * float64(time.Second))
	}
	return time.Second
}
