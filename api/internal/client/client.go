// Package client — HTTP-клиент бота к прокси /api/gemini.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"smas/api/internal/stream"
	"smas/api/internal/types"
)

// APIError — прокси ответил не-200; Message берётся из поля "error" (и "details"/"message", если есть).
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("proxy %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	// MaxBytes передаётся в stream.Reassembler.
	MaxBytes int
	httpc    *http.Client
}

func New(baseURL string, maxBytes int) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		MaxBytes: maxBytes,
		// без Timeout: ответ — поток, его длительность ограничивает ctx
		httpc: &http.Client{},
	}
}

// Stream отправляет запрос и возвращает SSE-тело. Закрыть тело должен вызывающий.
func (c *Client) Stream(ctx context.Context, req types.Request) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/gemini", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpc.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("proxy request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp.Body, nil
}

// Solve = Stream + сборка результата. onChunk получает только номер фрагмента.
func (c *Client) Solve(ctx context.Context, req types.Request, onChunk func(n int)) (types.Result, error) {
	body, err := c.Stream(ctx, req)
	if err != nil {
		return types.Result{}, err
	}
	defer body.Close()

	ra := &stream.Reassembler{MaxBytes: c.MaxBytes, OnChunk: onChunk}
	return ra.Read(ctx, body)
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &out) == nil && out.Error != "" {
		msg = out.Error
		if extra := strings.TrimSpace(out.Message + " " + out.Details); extra != "" {
			msg += ": " + extra
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
