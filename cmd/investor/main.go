// Command investor runs the AI equity advisor: a bounded agent loop that
// reviews the portfolio, evaluates holdings and shortlisted candidates
// against the scoring policy, and records every thesis to the audit log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ai-investor/internal/agent"
	"ai-investor/internal/broker"
	"ai-investor/internal/decision"
	"ai-investor/internal/interfaces"
	"ai-investor/internal/logger"
	"ai-investor/internal/marketdata"
	"ai-investor/internal/news"
	"ai-investor/internal/shortlist"
	"ai-investor/internal/store"
	"ai-investor/internal/thesislog"
	"ai-investor/internal/tools"
	"ai-investor/internal/trace"
	"ai-investor/internal/types"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "investor",
		Short:         "Long-term dividend portfolio advisor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	root.AddCommand(runCmd(), decideCmd(), positionsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds the wired services for one invocation.
type app struct {
	cfg       *store.Config
	broker    interfaces.Broker
	data      interfaces.MarketData
	engine    *decision.Engine
	log       *thesislog.FileStore
	shortlist *shortlist.Pipeline
	executor  *tools.Executor
}

func setup() (*app, error) {
	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}
	if err := trace.Init(); err != nil {
		return nil, fmt.Errorf("trace init: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := thesislog.NewFileStore(cfg.Paths.ThesisLog)
	if err := log.EnsureWritable(); err != nil {
		return nil, err
	}

	brk := broker.New(broker.Params{
		Mode:      cfg.Mode,
		Username:  os.Getenv("NORDNET_USERNAME"),
		AccountID: os.Getenv("NORDNET_ACCOUNT_ID"),
	})

	eodhd := marketdata.NewEODHD(marketdata.Config{
		BaseURL: cfg.Data.BaseURL,
		APIKey:  os.Getenv("EODHD_API_KEY"),
		Timeout: time.Duration(cfg.Data.TimeoutSeconds) * time.Second,
	})
	var data interfaces.MarketData = eodhd
	if cfg.Data.Source == "SCRAPE" {
		data = &scrapedData{
			EODHD:   eodhd,
			scraper: news.NewScraper(time.Duration(cfg.Data.TimeoutSeconds) * time.Second),
		}
	}

	pipeline := shortlist.New(eodhd, shortlist.Config{
		CachePath:   cfg.Shortlist.CachePath,
		TargetSize:  cfg.Shortlist.TargetSize,
		RefreshDays: cfg.Shortlist.RefreshDays,
		Exchange:    cfg.Exchange,
	})

	engine := decision.NewEngine(decision.PolicyFromConfig(cfg), log)
	executor := tools.NewExecutor(tools.Deps{
		Broker:       brk,
		Data:         data,
		Engine:       engine,
		Shortlist:    pipeline,
		Log:          log,
		LookbackDays: cfg.Data.LookbackDays,
	})

	return &app{
		cfg:       cfg,
		broker:    brk,
		data:      data,
		engine:    engine,
		log:       log,
		shortlist: pipeline,
		executor:  executor,
	}, nil
}

func loadConfig() (*store.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Warn(context.Background(), "Config file not found, using defaults", "path", configPath)
		return store.DefaultConfig(), nil
	}
	return store.LoadConfig(configPath)
}

// scrapedData keeps EODHD fundamentals but sources news from the public
// site scraper. Used when no news API coverage is available.
type scrapedData struct {
	*marketdata.EODHD
	scraper *news.Scraper
}

func (d *scrapedData) News(ctx context.Context, ticker string, lookbackDays int) ([]types.NewsItem, error) {
	return d.scraper.News(ctx, ticker, lookbackDays)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func (a *app) planner() agent.Planner {
	if a.cfg.Agent.Provider == "SCRIPTED" {
		return agent.NewScriptedPlanner(a.cfg.Shortlist.TargetSize)
	}
	system := a.cfg.Agent.System
	if system == "" {
		system = defaultSystemPrompt
	}
	return agent.NewClaudePlanner(agent.ClaudeConfig{
		Model:       a.cfg.Agent.Model,
		MaxTokens:   a.cfg.Agent.MaxTokens,
		Temperature: float64(a.cfg.Agent.Temperature),
		System:      system,
	})
}

const defaultSystemPrompt = `You are a disciplined long-term dividend investor managing a real portfolio.
Use the provided tools to inspect the portfolio, gather fundamentals and news,
and run evaluate_decision before considering any trade. Only trade when a
recorded thesis supports it. Favor patience: positions are held for years, not
days. When you are done, summarize what you reviewed and what you decided.`

const runGoal = `Review the portfolio. For every held position and for promising shortlist
candidates, run the decision evaluation. Execute trades only where the
recorded recommendation calls for one and funds allow it. Then report.`
