package assistants

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PabloGalante/vision-relay/internal/domain"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultBeta    = "assistants=v1"
	defaultTimeout = 60 * time.Second

	maxResponseBytes = 2 << 20
)

type Config struct {
	APIKey  string
	BaseURL string

	// Beta is sent as the OpenAI-Beta header value.
	Beta string

	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client speaks the threads/messages/runs protocol of the assistants API.
type Client struct {
	apiKey     string
	baseURL    string
	beta       string
	httpClient *http.Client
}

var _ domain.AssistantsAPI = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("new assistants client: api key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("new assistants client: base url: %w", err)
	}

	beta := strings.TrimSpace(cfg.Beta)
	if beta == "" {
		beta = DefaultBeta
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		beta:       beta,
		httpClient: httpClient,
	}, nil
}

func (c *Client) CreateThread(ctx context.Context) (domain.ThreadID, []byte, error) {
	_, body, err := c.do(ctx, http.MethodPost, "/threads", struct{}{})
	if err != nil {
		return "", body, err
	}

	var parsed idResponse
	_ = json.Unmarshal(body, &parsed)
	return domain.ThreadID(parsed.ID), body, nil
}

func (c *Client) PostMessage(ctx context.Context, thread domain.ThreadID, prompt string, image []byte) (int, []byte, error) {
	payload := messageRequest{
		Role:    string(domain.RoleUser),
		Content: prompt,
		Attachments: []attachment{{
			Type: "image",
			Data: base64.StdEncoding.EncodeToString(image),
		}},
	}
	return c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(string(thread))+"/messages", payload)
}

func (c *Client) StartRun(ctx context.Context, thread domain.ThreadID, assistantID string) (domain.RunID, []byte, error) {
	payload := runRequest{AssistantID: assistantID}
	_, body, err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(string(thread))+"/runs", payload)
	if err != nil {
		return "", body, err
	}

	var parsed idResponse
	_ = json.Unmarshal(body, &parsed)
	return domain.RunID(parsed.ID), body, nil
}

func (c *Client) GetRun(ctx context.Context, thread domain.ThreadID, run domain.RunID) (domain.RunStatus, []byte, error) {
	path := "/threads/" + url.PathEscape(string(thread)) + "/runs/" + url.PathEscape(string(run))
	_, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", body, err
	}

	var parsed runResponse
	_ = json.Unmarshal(body, &parsed)
	return domain.RunStatus(parsed.Status), body, nil
}

func (c *Client) ListMessages(ctx context.Context, thread domain.ThreadID) ([]domain.ThreadMessage, []byte, error) {
	_, body, err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(string(thread))+"/messages", nil)
	if err != nil {
		return nil, body, err
	}

	var parsed messageListResponse
	_ = json.Unmarshal(body, &parsed)

	out := make([]domain.ThreadMessage, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		out = append(out, domain.ThreadMessage{
			Role: domain.Role(m.Role),
			Text: m.firstText(),
		})
	}
	return out, body, nil
}

func (c *Client) DeleteThread(ctx context.Context, thread domain.ThreadID) error {
	status, body, err := c.do(ctx, http.MethodDelete, "/threads/"+url.PathEscape(string(thread)), nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return fmt.Errorf("delete thread status=%d body=%s", status, string(body))
	}
	return nil
}

// do performs one call and returns the status and the raw body. Only
// transport-level problems are returned as errors; HTTP error statuses
// are left for the caller to interpret.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("assistants request encode: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("assistants request build: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", c.beta)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("assistants %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("assistants response read: %w", err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
