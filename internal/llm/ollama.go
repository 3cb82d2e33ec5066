package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	ollamaDefaultHost  = "http://localhost:11434"
	ollamaDefaultModel = "qwen2.5-coder:7b"
)

// OllamaProvider implements Provider against a local Ollama server. It is the
// default when no hosted API key is configured.
type OllamaProvider struct {
	host   string
	client *http.Client
}

// NewOllama creates an Ollama provider using the OLLAMA_HOST env var, falling
// back to the standard local address.
func NewOllama() *OllamaProvider {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = ollamaDefaultHost
	}
	return &OllamaProvider{host: strings.TrimRight(host, "/"), client: &http.Client{}}
}

func (o *OllamaProvider) Name() string { return "ollama" }

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	model := s.Model
	if model == "" {
		model = ollamaDefaultModel
	}

	reqBody := ollamaRequest{
		Model:  model,
		Prompt: prompt,
		System: s.System,
		Stream: false,
		Options: ollamaOptions{
			Temperature: s.Temperature,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result ollamaResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("ollama: parse response: %w", err)
	}

	return result.Response, nil
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}
