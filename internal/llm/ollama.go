package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/util"
)

// OllamaVerifier implements Verifier on a local Ollama instance.
type OllamaVerifier struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // max tokens
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaVerifier creates an Ollama-backed verifier.
func NewOllamaVerifier(config Config) (*OllamaVerifier, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second // local models can be slow
	}

	return &OllamaVerifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		config: config,
	}, nil
}

func (v *OllamaVerifier) Name() string {
	return "ollama"
}

// IsAvailable checks that the Ollama daemon answers.
func (v *OllamaVerifier) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		logging.Warn("Ollama availability check failed", "base_url", v.baseURL, "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Verify judges one claim via the generate API.
func (v *OllamaVerifier) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	genModel := req.Model
	if genModel == "" {
		genModel = v.config.Model
	}
	if genModel == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b)")
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = v.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 600
	}

	prompt := BuildPrompt(req.Claim, req.Evidence)
	resp, err := v.generate(ctx, ollamaRequest{
		Model:  genModel,
		Prompt: prompt,
		Stream: false,
		System: verifySystemPrompt,
		Options: ollamaOptions{
			Temperature: 0.2,
			NumPredict:  maxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	text := strings.TrimSpace(resp.Response)
	result, reasoning := parseVerdict(text)
	cited := extractURLs(text)

	if err := checkCitations(cited, req.Evidence); err != nil {
		return nil, err
	}

	tokens := resp.PromptEvalCount + resp.EvalCount
	if tokens == 0 {
		// Some models report no counts; estimate at 4 chars per token.
		tokens = (len(prompt) + len(text)) / 4
	}

	return &VerifyResponse{
		Result:     result,
		Reasoning:  reasoning,
		CitedURLs:  cited,
		Model:      resp.Model,
		TokensUsed: tokens,
	}, nil
}

func (v *OllamaVerifier) generate(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := v.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}
