package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fika/fika-prep/pkg/ai-sdk/provider"
	"github.com/fika/fika-prep/pkg/ai-sdk/types"
)

const DefaultModel = "claude-3-5-haiku-latest"

// Provider implements the LanguageModel interface for Anthropic Claude
type Provider struct {
	client anthropic.Client
	model  string
}

// Config holds Anthropic-specific configuration
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New creates a new Anthropic provider
func New(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, types.ErrMissingAPIKey
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		client: anthropic.NewClient(opts...),
		model:  config.Model,
	}, nil
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("anthropic:%s", p.model)
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	msgReq := anthropic.MessageNewParams{
		Model:    anthropic.Model(p.model),
		Messages: convertMessages(req.Messages),
	}

	// Anthropic requires max_tokens
	msgReq.MaxTokens = 4096
	if req.MaxTokens > 0 {
		msgReq.MaxTokens = int64(req.MaxTokens)
	}

	if req.Temperature != nil {
		msgReq.Temperature = anthropic.Float(float64(*req.Temperature))
	}

	if req.System != "" {
		msgReq.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := p.client.Messages.New(ctx, msgReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("%w (stop reason %q)", types.ErrNoContentParts, resp.StopReason)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, fmt.Errorf("%w (stop reason %q)", types.ErrEmptyResponse, resp.StopReason)
	}

	return &types.GenerateResponse{
		Content:      content,
		Model:        string(resp.Model),
		FinishReason: string(resp.StopReason),
		Usage: types.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

func convertMessages(messages []types.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == types.RoleSystem || msg.Content == "" {
			continue
		}

		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == types.RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(block))
		} else {
			result = append(result, anthropic.NewUserMessage(block))
		}
	}

	return result
}
