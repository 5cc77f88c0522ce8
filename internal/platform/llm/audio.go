package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// AudioClient calls the hosted audio-transcription service.
type AudioClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAudioClient builds an AudioClient. apiKey is sent as a bearer token on
// every request.
func NewAudioClient(baseURL, apiKey string, opts ...AudioClientOption) *AudioClient {
	c := &AudioClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AudioClientOption configures an AudioClient.
type AudioClientOption func(*AudioClient)

// WithAudioHTTPClient overrides the underlying HTTP client.
func WithAudioHTTPClient(h *http.Client) AudioClientOption {
	return func(c *AudioClient) { c.httpClient = h }
}

// TranscribeRequest carries one audio file plus the prompt fields steering
// the transcription model.
type TranscribeRequest struct {
	Filename     string
	Audio        io.Reader
	Instruction  string
	SystemPrompt string
	Context      string
}

// TranscribeResult is the service's answer for one audio file.
type TranscribeResult struct {
	GeneratedText  string  `json:"generated_text"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
	ModelVersion   string  `json:"model_version,omitempty"`
}

// Transcribe uploads audio as multipart form data and returns the generated
// transcript.
func (c *AudioClient) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio_file", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, req.Audio); err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}
	fields := map[string]string{
		"instruction":   req.Instruction,
		"system_prompt": req.SystemPrompt,
		"context":       req.Context,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate/audio-text", &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transcription service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	var result TranscribeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transcription: %w", err)
	}
	return &result, nil
}
