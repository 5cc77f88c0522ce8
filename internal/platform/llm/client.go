// Package llm talks to the local text-generation service and the remote
// audio-transcription service, and reconciles the loosely formatted model
// output into structured results.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client calls an Ollama-compatible text-generation server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// NewClient builds a Client for the generation server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate runs a prompt against model and returns the full response text.
// The server streams newline-delimited JSON chunks; the chunks' response
// fields are accumulated in order.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	var out strings.Builder
	err := c.stream(ctx, model, prompt, func(chunk generateChunk) error {
		out.WriteString(chunk.Response)
		return nil
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// GenerateStream runs a prompt against model and writes each response chunk
// to w as it arrives. When w is an http.Flusher the chunk is flushed so the
// caller's client sees tokens immediately.
func (c *Client) GenerateStream(ctx context.Context, model, prompt string, w io.Writer) error {
	flusher, _ := w.(http.Flusher)
	return c.stream(ctx, model, prompt, func(chunk generateChunk) error {
		if chunk.Response == "" {
			return nil
		}
		if _, err := io.WriteString(w, chunk.Response); err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
}

func (c *Client) stream(ctx context.Context, model, prompt string, fn func(generateChunk) error) error {
	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: true})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("generation server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("generation server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.logger.Warn().Err(err).Msg("skipping malformed stream chunk")
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("generation failed: %s", chunk.Error)
		}
		if err := fn(chunk); err != nil {
			return err
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	c.logger.Debug().
		Str("model", model).
		Dur("elapsed", time.Since(start)).
		Msg("generation complete")
	return nil
}

// ModelInfo describes one model available on the generation server.
type ModelInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
}

// ListModels returns the models the generation server has loaded.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation server returned %d", resp.StatusCode)
	}
	var payload struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}
	return payload.Models, nil
}

// Healthy reports whether the generation server answers its model listing
// endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.ListModels(ctx)
	return err == nil
}
