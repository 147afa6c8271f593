package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fika/fika-prep/pkg/ai-sdk/provider"
	"github.com/fika/fika-prep/pkg/ai-sdk/types"
	"google.golang.org/genai"
)

// DefaultModel is the cheapest general text model on the Gemini API.
const DefaultModel = "gemini-2.5-flash"

// Provider implements the LanguageModel interface for Google Gemini
type Provider struct {
	client *genai.Client
	model  string
}

// New creates a new Gemini provider
func New(ctx context.Context, apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, types.ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{
		client: client,
		model:  model,
	}, nil
}

// Generate implements the Generate method of the LanguageModel interface.
// It never reads a text accessor that would fail on a filtered candidate;
// text is collected part by part instead.
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, p.convertMessages(req.Messages), p.buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	return convertResponse(p.model, resp)
}

func (p *Provider) buildConfig(req provider.GenerateRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	// Temperature is a pointer in genai, so an explicit zero is sent as zero.
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(*req.Temperature)
	}

	if req.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}

	return config
}

func convertResponse(model string, resp *genai.GenerateContentResponse) (*types.GenerateResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, types.ErrNoCandidates
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w (finish reason %q)", types.ErrNoContentParts, finishReasonOf(candidate))
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	content := strings.TrimSpace(text.String())
	if content == "" {
		return nil, fmt.Errorf("%w (finish reason %q)", types.ErrEmptyResponse, finishReasonOf(candidate))
	}

	response := &types.GenerateResponse{
		Content:      content,
		FinishReason: mapFinishReason(candidate.FinishReason),
		Model:        model,
	}

	if resp.UsageMetadata != nil {
		response.Usage = types.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return response, nil
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("gemini:%s", p.model)
}

// convertMessages converts types.Message to Gemini content format
func (p *Provider) convertMessages(messages []types.Message) []*genai.Content {
	var result []*genai.Content

	for _, msg := range messages {
		// System messages are handled separately via SystemInstruction
		if msg.Role == types.RoleSystem || msg.Content == "" {
			continue
		}

		// Gemini uses "user" or "model"
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}

		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return result
}

func finishReasonOf(candidate *genai.Candidate) string {
	if candidate == nil {
		return ""
	}
	return string(candidate.FinishReason)
}

// mapFinishReason maps Gemini finish reasons to standard format
func mapFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonMaxTokens:
		return types.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return types.FinishReasonContentFilter
	default:
		return types.FinishReasonStop
	}
}
