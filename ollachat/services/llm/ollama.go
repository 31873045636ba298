package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	httputils "ollachat/ollachat/utils/http"
	"ollachat/ollachat/utils/logging"

	"go.uber.org/zap"
)

type OllamaClient struct {
	baseURL      string
	defaultModel string
	http         *http.Client
}

func NewOllamaClient(baseURL, defaultModel string) *OllamaClient {
	return &OllamaClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		http:         &http.Client{Timeout: 5 * time.Minute},
	}
}

// DefaultModel is used when a request leaves the model empty.
func (c *OllamaClient) DefaultModel() string {
	return c.defaultModel
}

// Options mirrors the subset of Ollama generation options the API accepts.
type Options struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"`
}

type GenerateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *Options `json:"options,omitempty"`
}

type GenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

type ModelInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

func (c *OllamaClient) model(m string) string {
	if m == "" {
		return c.defaultModel
	}
	return m
}

func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	defer logging.LogDuration(ctx, "ollama_generate")()
	req.Model = c.model(req.Model)
	req.Stream = false

	var resp GenerateResponse
	if err := httputils.PostJSON(ctx, c.http, c.baseURL+"/api/generate", req, &resp); err != nil {
		logging.ErrorLogger.Error("ollama generate failed", zap.String("model", req.Model), zap.Error(err))
		return nil, fmt.Errorf("ollama: generate: %w", err)
	}
	return &resp, nil
}

// GenerateStream streams response fragments until Ollama reports done or ctx
// is cancelled. The error channel carries at most one value and is closed
// together with the chunk channel.
func (c *OllamaClient) GenerateStream(ctx context.Context, req GenerateRequest) (<-chan string, <-chan error) {
	req.Model = c.model(req.Model)
	req.Stream = true

	ch := make(chan string)
	errCh := make(chan error, 1)

	body, err := httputils.PostStream(ctx, c.http, c.baseURL+"/api/generate", req)
	if err != nil {
		errCh <- fmt.Errorf("ollama: generate stream: %w", err)
		close(ch)
		close(errCh)
		return ch, errCh
	}

	go func() {
		defer logging.LogDuration(ctx, "ollama_generate_stream")()
		defer func() {
			close(ch)
			close(errCh)
			body.Close()
		}()

		decoder := json.NewDecoder(body)
		for {
			var chunk GenerateResponse
			if err := decoder.Decode(&chunk); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				logging.ErrorLogger.Error("ollama stream decode error", zap.Error(err))
				errCh <- fmt.Errorf("ollama: decode stream: %w", err)
				return
			}
			if chunk.Response != "" {
				select {
				case ch <- chunk.Response:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			if chunk.Done {
				return
			}
		}
	}()

	return ch, errCh
}

func (c *OllamaClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp tagsResponse
	if err := httputils.GetJSON(ctx, c.http, c.baseURL+"/api/tags", &resp); err != nil {
		return nil, fmt.Errorf("ollama: list models: %w", err)
	}
	return resp.Models, nil
}

// CheckModel reports whether the model is installed. Any failure counts as
// not available.
func (c *OllamaClient) CheckModel(ctx context.Context, model string) bool {
	model = c.model(model)
	models, err := c.ListModels(ctx)
	if err != nil {
		logging.AppLogger.Warn("model availability check failed", zap.String("model", model), zap.Error(err))
		return false
	}
	for _, m := range models {
		if m.Model == model || m.Name == model {
			return true
		}
	}
	return false
}
