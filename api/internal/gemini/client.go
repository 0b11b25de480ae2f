package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"smas/api/internal/types"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client ходит в REST API напрямую: SSE-тело нужно отдать клиенту без изменений.
type Client struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func New(key, model, baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		BaseURL: strings.TrimRight(baseURL, "/"),
		// без Timeout: длительность стрима ограничивает ctx
		httpc: &http.Client{},
	}
}

func (c *Client) endpoint(method string, query url.Values) string {
	query.Set("key", c.APIKey)
	return fmt.Sprintf("%s/models/%s:%s?%s", c.BaseURL, url.PathEscape(c.Model), method, query.Encode())
}

// Stream вызывает streamGenerateContent?alt=sse и возвращает тело ответа как есть.
// Закрыть тело должен вызывающий.
func (c *Client) Stream(ctx context.Context, req types.Request) (io.ReadCloser, error) {
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	body, err := buildRequest(req)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	u := c.endpoint("streamGenerateContent", url.Values{"alt": {"sse"}})
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpc.Do(hreq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(x))}
	}
	return resp.Body, nil
}
