package analyst

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/rickgao/tradergrail/internal/model"
)

// formatUSD renders a dollar price, e.g. "$1,234.50".
func formatUSD(price float64) string {
	return money.NewFromFloat(price, money.USD).Display()
}

func analysisPrompt(symbol string, price float64, extra string) string {
	var b strings.Builder
	b.WriteString("You are a professional financial analyst specializing in algorithmic trading.\n\n")
	fmt.Fprintf(&b, "Analyze the current market conditions for %s at %s.\n", symbol, formatUSD(price))
	if extra = strings.TrimSpace(extra); extra != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", extra)
	}
	fmt.Fprintf(&b, "\nUse Google Search to find the latest news and market developments for %s.\n\n", symbol)
	b.WriteString(`Provide your analysis in the following JSON format:
{
  "sentiment": "bullish" | "bearish" | "neutral",
  "confidence": <0-100>,
  "summary": "<2-3 sentence overview>",
  "reasoning": ["<key point 1>", "<key point 2>", "<key point 3>"],
  "sources": ["<news source 1>", "<news source 2>"]
}

Be conservative and data-driven. Only respond with the JSON object, no additional text.`)
	return b.String()
}

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	bareJSON   = regexp.MustCompile(`(?s)\{.*\}`)
)

// extractJSON returns the JSON object in a model reply, which may be
// wrapped in a markdown code fence or surrounded by prose.
func extractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := bareJSON.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}

func parseAnalysis(text string) (model.Analysis, error) {
	var a model.Analysis
	if err := json.Unmarshal([]byte(extractJSON(text)), &a); err != nil {
		return model.Analysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	a.Sentiment = strings.ToLower(strings.TrimSpace(a.Sentiment))
	switch a.Sentiment {
	case "bullish", "bearish", "neutral":
	default:
		return model.Analysis{}, fmt.Errorf("%w: unexpected sentiment %q", ErrMalformedResponse, a.Sentiment)
	}
	if a.Confidence < 0 {
		a.Confidence = 0
	}
	if a.Confidence > 100 {
		a.Confidence = 100
	}
	if a.Summary == "" {
		return model.Analysis{}, fmt.Errorf("%w: empty summary", ErrMalformedResponse)
	}
	if a.Reasoning == nil {
		a.Reasoning = []string{}
	}
	if a.Sources == nil {
		a.Sources = []string{}
	}
	return a, nil
}
