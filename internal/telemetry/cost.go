package telemetry

import "strings"

// CostPerToken returns a best-effort per-token USD price for model under
// provider, keyed by substring match the same way the source cost tables
// are (§4.4). Families not recognized fall back to each table's documented
// default rather than erroring — cost is an estimate, never a hard fact.
func CostPerToken(provider, model string) float64 {
	model = strings.ToLower(model)
	switch provider {
	case "openai":
		return openAICostPerToken(model)
	case "anthropic":
		return anthropicCostPerToken(model)
	case "groq":
		return groqCostPerToken(model)
	case "bedrock":
		return bedrockCostPerToken(model)
	default:
		// Fireworks and Together publish no fixed per-model cost table
		// upstream; the gateway reports token counts for them but no cost.
		return 0
	}
}

func openAICostPerToken(model string) float64 {
	switch {
	case strings.HasPrefix(model, "gpt-4"):
		return 0.00003
	case strings.HasPrefix(model, "gpt-3.5"):
		return 0.000002
	default:
		return 0
	}
}

func anthropicCostPerToken(model string) float64 {
	switch {
	case strings.Contains(model, "claude-3.5-sonnet"), strings.Contains(model, "claude-3-5-sonnet"):
		return 0.000003
	case strings.Contains(model, "claude-3-opus"):
		return 0.000015
	case strings.Contains(model, "claude-3-sonnet"):
		return 0.000003
	case strings.Contains(model, "claude-3-haiku"):
		return 0.000000125
	case strings.Contains(model, "claude-2"):
		return 0.000008
	case strings.Contains(model, "claude-instant"):
		return 0.000001
	case strings.Contains(model, "claude-3"):
		return 0.000003
	case strings.Contains(model, "claude"):
		return 0.000002
	default:
		return 0.000002
	}
}

func groqCostPerToken(model string) float64 {
	switch {
	case strings.Contains(model, "llama-3.1-70b"), strings.Contains(model, "llama3-70b"), strings.Contains(model, "llama-3-70b"):
		return 0.00000059
	case strings.Contains(model, "llama-3.1-8b"), strings.Contains(model, "llama3-8b"), strings.Contains(model, "llama-3-8b"):
		return 0.00000005
	case strings.Contains(model, "llama2-70b"):
		return 0.0000007
	case strings.Contains(model, "llama2-13b"):
		return 0.0000002
	case strings.Contains(model, "llama2-7b"):
		return 0.0000001
	case strings.Contains(model, "mixtral-8x22b"):
		return 0.0000009
	case strings.Contains(model, "mixtral-8x7b"):
		return 0.00000024
	case strings.Contains(model, "gemma2-9b"), strings.Contains(model, "gemma-7b"):
		return 0.0000001
	case strings.Contains(model, "gemma2-27b"), strings.Contains(model, "gemma-27b"):
		return 0.0000002
	default:
		return 0.0001
	}
}

func bedrockCostPerToken(model string) float64 {
	switch {
	case strings.Contains(model, "claude"):
		return 0.00001102
	case strings.Contains(model, "titan"):
		return 0.00001
	case strings.Contains(model, "llama2"):
		return 0.00001
	default:
		return 0
	}
}

func costPtr(v float64) *float64 { return &v }
