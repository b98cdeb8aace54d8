package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiConfig configures the Gemini generateContent client.
type GeminiConfig struct {
	APIKey       string
	Model        string
	BaseURL      string // optional, defaults to the public endpoint
	SystemPrompt string
	Timeout      time.Duration
}

// GeminiClient calls the Gemini REST API. The HTTP client and endpoint are built on
// the first request, not at startup.
type GeminiClient struct {
	cfg GeminiConfig

	once       sync.Once
	initErr    error
	endpoint   string
	httpClient *http.Client
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	return &GeminiClient{cfg: cfg}
}

func (g *GeminiClient) init() {
	if g.cfg.APIKey == "" {
		g.initErr = errors.New("gemini: api key required")
		return
	}
	model := strings.TrimPrefix(strings.TrimSpace(g.cfg.Model), "models/")
	if model == "" {
		g.initErr = errors.New("gemini: model name required")
		return
	}
	baseURL := strings.TrimSuffix(strings.TrimSpace(g.cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	timeout := g.cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	g.endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, model)
	g.httpClient = &http.Client{Timeout: timeout}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// GenerateResponse sends the system prompt followed by the user's message and
// returns the concatenated text of the first candidate.
func (g *GeminiClient) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	g.once.Do(g.init)
	if g.initErr != nil {
		return "", g.initErr
	}

	text := prompt
	if g.cfg.SystemPrompt != "" {
		text = g.cfg.SystemPrompt + "\n\nUser:\n" + prompt
	}
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("gemini: %s (code=%d, status=%s)", errResp.Error.Message, errResp.Error.Code, errResp.Error.Status)
		}
		return "", fmt.Errorf("gemini: http %d: %s", resp.StatusCode, string(respBody))
	}

	var out geminiResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if out.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini: prompt blocked: %s", out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}

	var sb strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
