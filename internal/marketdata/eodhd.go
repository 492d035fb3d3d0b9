// Package marketdata provides fundamentals, news and screener access
// through the EODHD API.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"ai-investor/internal/logger"
	"ai-investor/internal/trace"
	"ai-investor/internal/types"
)

// ErrMissingAPIKey is returned when the client is used without a token.
var ErrMissingAPIKey = errors.New("EODHD_API_KEY missing")

// Config for the EODHD client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// EODHD wraps the REST API with typed accessors.
type EODHD struct {
	client *resty.Client
	apiKey string
}

func NewEODHD(cfg Config) *EODHD {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://eodhd.com/api"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	return &EODHD{client: client, apiKey: cfg.APIKey}
}

// apiError is the error envelope EODHD returns inside a 200 response.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *EODHD) get(ctx context.Context, path string, params map[string]string, out any) error {
	if e.apiKey == "" {
		return ErrMissingAPIKey
	}
	query := map[string]string{"api_token": e.apiKey, "fmt": "json"}
	for k, v := range params {
		query[k] = v
	}

	var envelope apiError
	resp, err := e.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		SetError(&envelope).
		Get(path)
	if err != nil {
		return fmt.Errorf("eodhd %s: %w", path, err)
	}
	if resp.IsError() {
		if envelope.Message != "" {
			return fmt.Errorf("eodhd %s: %d %s", path, envelope.Code, envelope.Message)
		}
		return fmt.Errorf("eodhd %s: http %d", path, resp.StatusCode())
	}
	return nil
}

// eodhdFundamentals mirrors the sections of the fundamentals payload the
// scorer consumes. EODHD reports yields and margins as fractions; they are
// converted to percentages on the way out.
type eodhdFundamentals struct {
	Highlights struct {
		DividendYield       *float64 `json:"DividendYield"`
		PERatio             *float64 `json:"PERatio"`
		ProfitMargin        *float64 `json:"ProfitMargin"`
		ReturnOnAssetsTTM   *float64 `json:"ReturnOnAssetsTTM"`
		ReturnOnEquityTTM   *float64 `json:"ReturnOnEquityTTM"`
		DividendPayoutRatio *float64 `json:"PayoutRatio"`
	} `json:"Highlights"`
	Valuation struct {
		ForwardPE *float64 `json:"ForwardPE"`
	} `json:"Valuation"`
	Technicals struct {
		Beta *float64 `json:"Beta"`
	} `json:"Technicals"`
	Financials struct {
		DebtToEquity *float64 `json:"DebtToEquity"`
	} `json:"Financials"`
}

// Fundamentals fetches and maps the fundamentals snapshot for one ticker.
// Absent payload fields stay nil so the scorer can tell missing from zero.
func (e *EODHD) Fundamentals(ctx context.Context, ticker string) (types.FundamentalsSnapshot, error) {
	ctx, span := trace.StartSpan(ctx, "eodhd-fundamentals")
	defer span.End()

	var raw eodhdFundamentals
	if err := e.get(ctx, "/fundamentals/"+ticker, nil, &raw); err != nil {
		return types.FundamentalsSnapshot{}, err
	}

	snap := types.FundamentalsSnapshot{
		Ticker:        ticker,
		DividendYield: asPercent(raw.Highlights.DividendYield),
		PayoutRatio:   asPercent(raw.Highlights.DividendPayoutRatio),
		PERatio:       raw.Highlights.PERatio,
		ForwardPE:     raw.Valuation.ForwardPE,
		NetMargin:     asPercent(raw.Highlights.ProfitMargin),
		ROA:           asPercent(raw.Highlights.ReturnOnAssetsTTM),
		ROE:           asPercent(raw.Highlights.ReturnOnEquityTTM),
		DebtToEquity:  raw.Financials.DebtToEquity,
		Beta:          raw.Technicals.Beta,
	}
	logger.Debug(ctx, "Fetched fundamentals", "ticker", ticker)
	return snap, nil
}

type eodhdNewsItem struct {
	Date      string `json:"date"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Link      string `json:"link"`
	Sentiment *struct {
		Polarity float64 `json:"polarity"`
	} `json:"sentiment"`
}

// Sentiment polarity cutoffs: inside (-0.15, 0.15) counts as neutral.
const polarityCutoff = 0.15

// News fetches recent articles for one ticker inside the lookback window,
// most recent first.
func (e *EODHD) News(ctx context.Context, ticker string, lookbackDays int) ([]types.NewsItem, error) {
	ctx, span := trace.StartSpan(ctx, "eodhd-news")
	defer span.End()

	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	now := time.Now().UTC()
	params := map[string]string{
		"s":    ticker,
		"from": now.AddDate(0, 0, -lookbackDays).Format("2006-01-02"),
		"to":   now.Format("2006-01-02"),
	}
	var raw []eodhdNewsItem
	if err := e.get(ctx, "/news", params, &raw); err != nil {
		return nil, err
	}

	items := make([]types.NewsItem, 0, len(raw))
	for _, r := range raw {
		item := types.NewsItem{
			Title:     r.Title,
			Summary:   truncate(r.Content, 400),
			Link:      r.Link,
			Sentiment: types.SentimentNeutral,
		}
		if ts, err := time.Parse(time.RFC3339, r.Date); err == nil {
			item.PublishedAt = ts
		}
		if r.Sentiment != nil {
			switch {
			case r.Sentiment.Polarity >= polarityCutoff:
				item.Sentiment = types.SentimentPositive
			case r.Sentiment.Polarity <= -polarityCutoff:
				item.Sentiment = types.SentimentNegative
			}
		}
		items = append(items, item)
	}
	logger.Debug(ctx, "Fetched news", "ticker", ticker, "count", len(items))
	return items, nil
}

type screenerResult struct {
	Data []struct {
		Code      string  `json:"code"`
		Name      string  `json:"name"`
		MarketCap float64 `json:"market_capitalization"`
		AvgVolume float64 `json:"avgvol_1d"`
	} `json:"data"`
}

// ListDividendLargeCaps runs the conservative screener: large caps with a
// dividend yield above 2%.
func (e *EODHD) ListDividendLargeCaps(ctx context.Context, exchange string) ([]types.Candidate, error) {
	ctx, span := trace.StartSpan(ctx, "eodhd-screener")
	defer span.End()

	params := map[string]string{
		"filters": fmt.Sprintf(`[["market_capitalization",">",10000000000],["dividend_yield",">",0.02],["exchange","=","%s"]]`, exchange),
		"sort":    "market_capitalization.desc",
		"limit":   strconv.Itoa(200),
	}
	var raw screenerResult
	if err := e.get(ctx, "/screener", params, &raw); err != nil {
		return nil, err
	}

	candidates := make([]types.Candidate, 0, len(raw.Data))
	for _, d := range raw.Data {
		candidates = append(candidates, types.Candidate{
			Ticker:    d.Code,
			Name:      d.Name,
			MarketCap: d.MarketCap,
			AvgVolume: d.AvgVolume,
		})
	}
	return candidates, nil
}

func asPercent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	p := *v * 100
	return &p
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
