package oracle

import (
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/adapter"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/config"
)

func normalizeUsage(u *adapter.Usage) adapter.Usage {
	if u == nil {
		return adapter.Usage{}
	}
	usage := *u
	if usage.TotalTokens == 0 && (usage.PromptTokens > 0 || usage.CompletionTokens > 0) {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}

// EstimateCost prices usage against the per-1k token table. The second
// return is false when no pricing entry exists for the backend.
func EstimateCost(pricing config.PricingConfig, backend, model string, usage adapter.Usage) (float64, bool) {
	entry, ok := pricingFor(pricing, backend, model)
	if !ok {
		return 0, false
	}
	promptCost := (float64(usage.PromptTokens) / 1000.0) * entry.PromptPer1K
	completionCost := (float64(usage.CompletionTokens) / 1000.0) * entry.CompletionPer1K
	return promptCost + completionCost, true
}

func pricingFor(pricing config.PricingConfig, backend, model string) (config.ModelPricing, bool) {
	if pricing == nil {
		return config.ModelPricing{}, false
	}
	if backendPricing, ok := pricing[backend]; ok {
		if entry, ok := backendPricing[model]; ok {
			return entry, true
		}
		if entry, ok := backendPricing["default"]; ok {
			return entry, true
		}
	}
	return config.ModelPricing{}, false
}
