package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/claimstream/internal/logging"
)

// OpenAIVerifier implements Verifier on the OpenAI Chat Completions
// API.
type OpenAIVerifier struct {
	client *openai.Client
	config Config
}

// NewOpenAIVerifier creates an OpenAI-backed verifier.
func NewOpenAIVerifier(config Config) (*OpenAIVerifier, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIVerifier{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

func (v *OpenAIVerifier) Name() string {
	return "openai"
}

// IsAvailable checks the API with a lightweight model-list call.
func (v *OpenAIVerifier) IsAvailable(ctx context.Context) bool {
	if _, err := v.client.ListModels(ctx); err != nil {
		logging.Warn("OpenAI API check failed", "error", err)
		return false
	}
	return true
}

// Verify judges one claim via chat completion.
func (v *OpenAIVerifier) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	chatModel := req.Model
	if chatModel == "" {
		chatModel = v.config.Model
	}
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = v.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 600
	}

	timeout := time.Duration(v.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: verifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req.Claim, req.Evidence)},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, reasoning := parseVerdict(text)
	cited := extractURLs(text)

	if err := checkCitations(cited, req.Evidence); err != nil {
		return nil, err
	}

	return &VerifyResponse{
		Result:     result,
		Reasoning:  reasoning,
		CitedURLs:  cited,
		Model:      chatModel,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
