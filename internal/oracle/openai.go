package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TAROSUKE-Cyber/tarot-app/internal/config"
	"go.uber.org/zap"
)

// OpenAIClient generates readings through an OpenAI-style responses endpoint.
type OpenAIClient struct {
	httpClient *http.Client
	log        *zap.Logger
	baseURL    string
	apiKey     string
	model      string
}

func NewOpenAIClient(cfg config.Config, log *zap.Logger) *OpenAIClient {
	timeout := time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("oracle.openai"),
		baseURL:    cfg.OpenAI.BaseURL,
		apiKey:     cfg.OpenAI.APIKey,
		model:      cfg.OpenAI.Model,
	}
}

type responsesRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type responsesResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Text json.RawMessage `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func (c *OpenAIClient) Interpret(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(responsesRequest{
		Model: c.model,
		Input: BuildPrompt(req),
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("completion request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("completion request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("model", c.model),
		)
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed responsesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text := extractText(parsed)
	if text == "" {
		return FallbackText, nil
	}
	return text, nil
}

func extractText(resp responsesResponse) string {
	if text := strings.TrimSpace(resp.OutputText); text != "" {
		return text
	}
	for _, out := range resp.Output {
		for _, content := range out.Content {
			if text := decodeTextValue(content.Text); text != "" {
				return text
			}
		}
	}
	return ""
}

// The responses API has returned text both as a plain string and as an object
// with a value field, depending on SDK vintage.
func decodeTextValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return strings.TrimSpace(plain)
	}
	var structured struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &structured); err == nil {
		return strings.TrimSpace(structured.Value)
	}
	return ""
}
