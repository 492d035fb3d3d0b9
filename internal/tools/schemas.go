package tools

// Schema describes one capability in the JSON Schema dialect the Anthropic
// messages API expects for tool definitions.
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

func noArgs() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func tickerSchema(extra map[string]any, required ...string) map[string]any {
	props := map[string]any{
		"ticker": map[string]any{"type": "string", "description": "Ticker symbol, e.g. AAPL"},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   append([]string{"ticker"}, required...),
	}
}

// Schemas returns the tool definitions handed to the planner. The order is
// stable so transcripts diff cleanly between runs.
func Schemas() []Schema {
	return []Schema{
		{
			Name:        string(CapFetchPositions),
			Description: "List the current portfolio positions with quantities, average cost and market value.",
			InputSchema: noArgs(),
		},
		{
			Name:        string(CapFetchFunds),
			Description: "Get available cash and total account value.",
			InputSchema: noArgs(),
		},
		{
			Name:        string(CapFetchFundamentals),
			Description: "Fetch the fundamental metrics snapshot for one ticker: dividend yield, payout ratio, margins, returns, debt and beta. Missing metrics are omitted.",
			InputSchema: tickerSchema(nil),
		},
		{
			Name:        string(CapFetchNews),
			Description: "Fetch recent news articles for one ticker with sentiment labels, most recent first.",
			InputSchema: tickerSchema(map[string]any{
				"lookback_days": map[string]any{"type": "integer", "description": "How many days back to search. Defaults to the configured window."},
			}),
		},
		{
			Name:        string(CapFetchCandidates),
			Description: "List the shortlisted dividend large-cap candidates eligible for new positions.",
			InputSchema: noArgs(),
		},
		{
			Name:        string(CapFetchSnapshots),
			Description: "Fetch fundamentals and news for several tickers in one call. Failures are reported per ticker; one bad ticker does not fail the batch.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tickers": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Ticker symbols, at most 25.",
					},
				},
				"required": []string{"tickers"},
			},
		},
		{
			Name:        string(CapEvaluateDecision),
			Description: "Run the full decision evaluation for one ticker: compute quantitative, qualitative and stability scores, apply the threshold policy against the holding period, and record the resulting investment thesis. Returns the thesis with recommendation and conviction. Fundamentals and news already in hand may be passed inline; anything absent is fetched.",
			InputSchema: tickerSchema(map[string]any{
				"fundamentals": map[string]any{
					"type":        "object",
					"description": "A fundamentals snapshot to evaluate instead of fetching one.",
				},
				"news": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "object"},
					"description": "News items with sentiment labels to evaluate instead of fetching.",
				},
			}),
		},
		{
			Name:        string(CapExecuteTrade),
			Description: "Place a trade through the broker. Side is 'buy' or 'sell'; quantity and price must be positive. Only call this after evaluate_decision supports the action.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"ticker":   map[string]any{"type": "string"},
					"side":     map[string]any{"type": "string", "enum": []string{"buy", "sell"}},
					"quantity": map[string]any{"type": "integer"},
					"price":    map[string]any{"type": "number"},
				},
				"required": []string{"ticker", "side", "quantity", "price"},
			},
		},
	}
}
