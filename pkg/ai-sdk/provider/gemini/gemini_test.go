package gemini

import (
	"testing"

	"github.com/fika/fika-prep/pkg/ai-sdk/provider"
	"github.com/fika/fika-prep/pkg/ai-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertResponse(t *testing.T) {
	textCandidate := func(texts ...string) *genai.Candidate {
		parts := make([]*genai.Part, len(texts))
		for i, text := range texts {
			parts[i] = genai.NewPartFromText(text)
		}
		return &genai.Candidate{
			Content:      &genai.Content{Role: "model", Parts: parts},
			FinishReason: genai.FinishReasonStop,
		}
	}

	tests := []struct {
		name     string
		resp     *genai.GenerateContentResponse
		expected string
		wantErr  error
	}{
		{
			name:    "nil response",
			resp:    nil,
			wantErr: types.ErrNoCandidates,
		},
		{
			name:    "no candidates",
			resp:    &genai.GenerateContentResponse{},
			wantErr: types.ErrNoCandidates,
		},
		{
			name: "safety filtered without content",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{FinishReason: genai.FinishReasonSafety},
			}},
			wantErr: types.ErrNoContentParts,
		},
		{
			name: "content without parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Role: "model"}, FinishReason: genai.FinishReasonMaxTokens},
			}},
			wantErr: types.ErrNoContentParts,
		},
		{
			name:    "whitespace only text",
			resp:    &genai.GenerateContentResponse{Candidates: []*genai.Candidate{textCandidate("  ", "\n")}},
			wantErr: types.ErrEmptyResponse,
		},
		{
			name:     "parts are concatenated",
			resp:     &genai.GenerateContentResponse{Candidates: []*genai.Candidate{textCandidate(`{"results":`, ` []}`)}},
			expected: `{"results": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := convertResponse(DefaultModel, tt.resp)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, types.IsShapeError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.Content)
			assert.Equal(t, types.FinishReasonStop, got.FinishReason)
		})
	}
}

func TestBuildConfig_ZeroTemperatureIsExplicit(t *testing.T) {
	p := &Provider{model: DefaultModel}

	config := p.buildConfig(provider.GenerateRequest{
		Temperature: provider.Float32(0),
		MaxTokens:   1024,
		JSONOutput:  true,
		System:      "classify",
	})

	require.NotNil(t, config.Temperature)
	assert.Equal(t, float32(0), *config.Temperature)
	assert.Equal(t, int32(1024), config.MaxOutputTokens)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	require.NotNil(t, config.SystemInstruction)

	assert.Nil(t, p.buildConfig(provider.GenerateRequest{}).Temperature)
}

func TestConvertMessages_SkipsSystem(t *testing.T) {
	p := &Provider{model: DefaultModel}

	contents := p.convertMessages([]types.Message{
		{Role: types.RoleSystem, Content: "ignored"},
		types.UserMessage("classify these"),
		{Role: types.RoleAssistant, Content: "ok"},
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
}
