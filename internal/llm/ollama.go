package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/jmorganca/ollama/api"
)

// Ollama is an LLM client for a locally hosted Ollama server, useful when
// the pipeline must run without outbound network access.
type Ollama struct {
	client *olla.Client
	model  string
}

// NewOllama creates an Ollama client. An empty baseURL defaults to the
// standard local endpoint.
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{Timeout: 120 * time.Second}
	return &Ollama{client: olla.NewClient(parsed, hc), model: model}, nil
}

// Generate sends a single prompt and returns the accumulated response text.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &olla.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var sb strings.Builder
	err := o.client.Generate(ctx, req, func(resp olla.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}
	return sb.String(), nil
}

var _ LLM = (*Ollama)(nil)
