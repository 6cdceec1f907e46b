// Package session talks to the remote reservation service: it logs in, fetches
// captcha images by ID and submits answers. Retry policy is left to callers.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.ecsc.gov.sy:8080"

var (
	// ErrUnauthorized is returned when the service rejects the credentials.
	ErrUnauthorized = errors.New("credentials rejected")
	// ErrNoCaptcha is returned when a captcha response carries no image.
	ErrNoCaptcha = errors.New("captcha response has no file")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, e.Body)
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.1.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/56.0.2924.87 Safari/537.36",
	"Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/47.0.2526.106 Safari/537.36",
	"Mozilla/5.0 (Windows NT 6.1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/41.0.2228.0 Safari/537.36",
}

// RandomUserAgent picks one of the known browser user agents.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Client is an authenticated session against the service. Cookies set at
// login are kept in the client's jar.
type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

// NewClient returns a client with its own cookie jar and a random user agent.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: RandomUserAgent(),
		HTTP:      &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Source", "WEB")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", "https://ecsc.gov.sy/")
	req.Header.Set("Origin", "https://ecsc.gov.sy")
	return req, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	default:
		return nil, &StatusError{Op: op, Status: resp.StatusCode, Body: snippet(string(body), 200)}
	}
}

// Login authenticates the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/secure/auth/login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	_, err = c.do(req, "login")
	return err
}

// FetchCaptcha returns the base64 (or data URI) captcha image for id.
func (c *Client) FetchCaptcha(ctx context.Context, id string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/files/fs/captcha/"+url.PathEscape(id), nil)
	if err != nil {
		return "", err
	}
	body, err := c.do(req, "fetch captcha")
	if err != nil {
		return "", err
	}
	var out struct {
		File string `json:"file"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("fetch captcha: decode: %w", err)
	}
	if out.File == "" {
		return "", ErrNoCaptcha
	}
	return out.File, nil
}

// Submit sends the answer for captcha id.
func (c *Client) Submit(ctx context.Context, id, answer string) error {
	q := url.Values{}
	q.Set("id", id)
	q.Set("captcha", answer)
	req, err := c.newRequest(ctx, http.MethodGet, "/rs/reserve?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	_, err = c.do(req, "submit")
	return err
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
