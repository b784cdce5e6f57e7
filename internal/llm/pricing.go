package llm

import "math"

// PriceTable maps a model id to its cents-per-1K-token rates.
type PriceTable map[string]ModelRate

type ModelRate struct {
	InputCents  float64
	OutputCents float64
}

// DefaultPrices mirrors the gateway's published per-model rates. Unknown
// models are billed at the gpt-3.5-turbo rate.
var DefaultPrices = PriceTable{
	"gpt-4-turbo-preview": {InputCents: 1.0, OutputCents: 3.0},
	"gpt-4o-mini":         {InputCents: 0.015, OutputCents: 0.06},
	"gpt-3.5-turbo":       {InputCents: 0.05, OutputCents: 0.15},
}

const fallbackModel = "gpt-3.5-turbo"

// CostCents converts one completion's token usage into whole cents. Pure
// function of (model, prompt tokens, completion tokens).
func (t PriceTable) CostCents(model string, promptTokens, completionTokens int) int {
	rate, ok := t[model]
	if !ok {
		rate = t[fallbackModel]
	}
	inputCost := float64(promptTokens) / 1000 * rate.InputCents
	outputCost := float64(completionTokens) / 1000 * rate.OutputCents
	return int(math.Round(inputCost + outputCost))
}
