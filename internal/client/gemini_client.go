package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/askvideo/api/internal/config"
)

// VideoAnalyzer defines the interface for the streaming analysis call.
type VideoAnalyzer interface {
	AnalyzeVideo(ctx context.Context, req *AnalyzeVideoRequest) (string, error)
}

// GeminiClient implements VideoAnalyzer against the Gemini REST API.
type GeminiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// AnalyzeVideoRequest carries everything one analysis call needs.
type AnalyzeVideoRequest struct {
	VideoURL      string
	Question      string
	Model         string
	LowResolution bool
}

// generateContentRequest is the streamGenerateContent request body
type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	FileURI string `json:"file_uri"`
}

type generationConfig struct {
	MediaResolution string `json:"mediaResolution,omitempty"`
}

// generateContentChunk is one SSE event of the streamed response
type generateContentChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// apiError is the error envelope the API returns on non-200 responses
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(cfg *config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		// No client timeout: streaming a long video analysis can take
		// minutes, cancellation comes from ctx.
		httpClient: &http.Client{},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// AnalyzeVideo streams the analysis of a video against a question and returns
// the concatenated text. The stream is consumed exactly once; any provider
// failure is returned with its status and message intact so the caller can
// classify it. An empty accumulated string with a nil error means the call
// succeeded but produced no usable text.
func (c *GeminiClient) AnalyzeVideo(ctx context.Context, req *AnalyzeVideoRequest) (string, error) {
	body := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{FileData: &fileData{FileURI: req.VideoURL}},
				{Text: req.Question},
			},
		}},
	}
	if req.LowResolution {
		body.GenerationConfig = &generationConfig{MediaResolution: "MEDIA_RESOLUTION_LOW"}
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse&key=%s",
		c.baseURL, req.Model, c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.readError(resp)
	}

	return c.accumulateStream(resp.Body)
}

// accumulateStream consumes the SSE body and concatenates every text part.
// A failure mid-stream discards the partial text.
func (c *GeminiClient) accumulateStream(body io.Reader) (string, error) {
	var sb strings.Builder

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk generateContentChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		for _, cand := range chunk.Candidates {
			for _, p := range cand.Content.Parts {
				sb.WriteString(p.Text)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("stream interrupted: %w", err)
	}

	return sb.String(), nil
}

// readError surfaces the provider's status and message verbatim; the error
// classifier matches on these substrings.
func (c *GeminiClient) readError(resp *http.Response) error {
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("gemini API error (status %d)", resp.StatusCode)
	}

	var apiErr apiError
	if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("%s: %s", apiErr.Error.Status, apiErr.Error.Message)
	}
	return fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
}

// IsConfigured returns true if the client has valid configuration
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}
