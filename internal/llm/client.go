package llm

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the slice of the OpenAI SDK the orchestrators depend on.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// SamplingProfile carries the completion parameters for one agent. Both
// agents run hot (high temperature plus repetition penalties) so replies do
// not reuse the same phrasing across turns.
type SamplingProfile struct {
	Model            string
	Temperature      float32
	MaxTokens        int
	FrequencyPenalty float32
	PresencePenalty  float32
	TopP             float32
	Timeout          time.Duration
}

// ClientProfile returns the customer-agent sampling parameters.
func ClientProfile(model string) SamplingProfile {
	if model == "" {
		model = openai.GPT4oMini
	}
	return SamplingProfile{
		Model:            model,
		Temperature:      0.85,
		MaxTokens:        800,
		FrequencyPenalty: 0.6,
		PresencePenalty:  0.4,
		TopP:             0.9,
		Timeout:          25 * time.Second,
	}
}

// AuroraProfile returns the owner-agent sampling parameters.
func AuroraProfile(model string) SamplingProfile {
	if model == "" {
		model = openai.GPT4oMini
	}
	return SamplingProfile{
		Model:            model,
		Temperature:      0.9,
		MaxTokens:        1000,
		FrequencyPenalty: 0.7,
		PresencePenalty:  0.5,
		TopP:             0.9,
		Timeout:          25 * time.Second,
	}
}

// Apply copies the profile onto a request, leaving messages and tool
// declarations to the caller.
func (p SamplingProfile) Apply(req *openai.ChatCompletionRequest) {
	req.Model = p.Model
	req.Temperature = p.Temperature
	req.MaxTokens = p.MaxTokens
	req.FrequencyPenalty = p.FrequencyPenalty
	req.PresencePenalty = p.PresencePenalty
	req.TopP = p.TopP
}

// CallContext bounds one gateway call with the profile's timeout.
func (p SamplingProfile) CallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
