package telemetry

import (
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// EstimateOutputTokens returns a best-effort token count for accumulated
// streaming text when a provider's final chunk never disclosed usage
// (Open Question: estimate rather than report nothing). It counts BPE tokens
// via tiktoken-go, using o200k_base for gpt-4o/o1 models and cl100k_base for
// every other model, and falls back to a char/4 heuristic (rounded up) when
// that encoding cannot be loaded.
func EstimateOutputTokens(model, text string) int {
	if text == "" {
		return 0
	}

	encodingName := "cl100k_base"
	lower := strings.ToLower(model)
	if strings.Contains(lower, "gpt-4o") || strings.Contains(lower, "o1") {
		encodingName = "o200k_base"
	}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
