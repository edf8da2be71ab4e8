package llm

import "math"

// modelRates holds USD cost per 1M tokens, approximate as of early 2025.
type modelRates struct {
	input  float64
	output float64
}

var costTable = map[string]modelRates{
	"gpt-4o":             {input: 2.50, output: 10.0},
	"gpt-4o-mini":        {input: 0.15, output: 0.60},
	"dummy-heuristic-v1": {input: 0, output: 0},
}

var defaultRates = modelRates{input: 3.0, output: 15.0}

// EstimateCost returns the estimated USD cost for a call, using the default
// rate for unknown models. The estimate is independent of whether the
// provider reported real usage counters.
func EstimateCost(modelID string, inputTokens, outputTokens int) float64 {
	rates, ok := costTable[modelID]
	if !ok {
		rates = defaultRates
	}
	cost := (float64(inputTokens)*rates.input + float64(outputTokens)*rates.output) / 1_000_000
	return math.Round(cost*1e6) / 1e6
}
