// Package news is the scraping fallback news source, used when no market
// data API key is configured. Headlines are labeled by a keyword lexicon
// instead of provider sentiment.
package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"ai-investor/internal/logger"
	"ai-investor/internal/types"
)

// Scraper collects headlines about a ticker from public finance sites.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source is one scrape target.
type Source struct {
	Name       string
	BaseURL    string
	SearchPath string // "{ticker}" is substituted
	Selectors  Selectors
	RateLimit  time.Duration
}

// Selectors are the CSS paths into one source's listing page.
type Selectors struct {
	ArticleContainer string
	Title            string
	URL              string
	Summary          string
}

func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{sources: defaultSources(), timeout: timeout}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:       "Finviz",
			BaseURL:    "https://finviz.com",
			SearchPath: "/quote.ashx?t={ticker}",
			Selectors: Selectors{
				ArticleContainer: "table.fullview-news-outer tr",
				Title:            "a.tab-link-news",
				URL:              "a.tab-link-news",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:       "YahooFinance",
			BaseURL:    "https://finance.yahoo.com",
			SearchPath: "/quote/{ticker}/news",
			Selectors: Selectors{
				ArticleContainer: "li.stream-item",
				Title:            "h3",
				URL:              "a",
				Summary:          "p",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// News implements the market-data news contract over scraping. The
// lookback window cannot be honored precisely without article timestamps,
// so items are stamped with scrape time.
func (s *Scraper) News(ctx context.Context, ticker string, lookbackDays int) ([]types.NewsItem, error) {
	logger.Info(ctx, "Scraping news", "ticker", ticker, "sources", len(s.sources))

	var all []types.NewsItem
	for i, source := range s.sources {
		items, err := s.scrapeSource(ctx, source, ticker)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err,
				"source", source.Name, "ticker", ticker)
		} else {
			all = append(all, items...)
		}
		if i == len(s.sources)-1 {
			break
		}
		if err := pause(ctx, source.RateLimit); err != nil {
			return all, err
		}
	}
	logger.Info(ctx, "News scraping completed", "ticker", ticker, "articles", len(all))
	return all, nil
}

const maxArticlesPerSource = 10

func (s *Scraper) scrapeSource(ctx context.Context, source Source, ticker string) ([]types.NewsItem, error) {
	var items []types.NewsItem

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(source.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	})

	c.OnHTML(source.Selectors.ArticleContainer, func(e *colly.HTMLElement) {
		if len(items) >= maxArticlesPerSource {
			return
		}
		item, ok := extractItem(e.DOM, source)
		if !ok {
			return
		}
		if !strings.HasPrefix(item.Link, "http") {
			item.Link = source.BaseURL + item.Link
		}
		item.Sentiment = LabelSentiment(item.Title + " " + item.Summary)
		item.PublishedAt = time.Now().UTC()
		items = append(items, item)
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scrape request failed", err,
			"source", source.Name, "url", r.Request.URL.String())
	})

	searchURL := source.BaseURL + strings.ReplaceAll(source.SearchPath, "{ticker}", ticker)
	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", searchURL, err)
	}
	c.Wait()
	return items, nil
}

// extractItem pulls one headline out of a listing row.
func extractItem(sel *goquery.Selection, source Source) (types.NewsItem, bool) {
	title := strings.TrimSpace(sel.Find(source.Selectors.Title).First().Text())
	if title == "" {
		return types.NewsItem{}, false
	}
	link, _ := sel.Find(source.Selectors.URL).First().Attr("href")
	var summary string
	if source.Selectors.Summary != "" {
		summary = strings.TrimSpace(sel.Find(source.Selectors.Summary).First().Text())
	}
	return types.NewsItem{Title: title, Summary: summary, Link: link}, true
}

// pause waits out the inter-source rate limit, returning early when the
// context is cancelled.
func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func hostOf(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	return u.Host
}
