package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ai-investor/internal/agent"
	"ai-investor/internal/logger"
	"ai-investor/internal/report"
	"ai-investor/internal/thesislog"
	"ai-investor/internal/tools"
	"ai-investor/internal/trace"
)

func runCmd() *cobra.Command {
	var emailReport bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full agent review loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			defer trace.Shutdown(context.Background())

			if err := a.broker.Authenticate(ctx); err != nil {
				return fmt.Errorf("broker auth: %w", err)
			}

			before, err := a.log.Scan()
			if err != nil {
				return fmt.Errorf("thesis log scan: %w", err)
			}

			loop := agent.NewLoop(a.planner(), a.executor, a.cfg.Agent.MaxIterations)
			result, err := loop.Run(ctx, runGoal)
			if err != nil {
				return fmt.Errorf("agent run: %w", err)
			}

			after, err := a.log.Scan()
			if err != nil {
				return fmt.Errorf("thesis log scan: %w", err)
			}
			var theses []thesislog.Entry
			if len(after) > len(before) {
				theses = after[len(before):]
			}

			positions, err := a.broker.ListPositions(ctx)
			if err != nil {
				return err
			}
			funds, err := a.broker.AvailableFunds(ctx)
			if err != nil {
				return err
			}

			body := report.Build(report.Input{
				GeneratedAt: time.Now().UTC(),
				Mode:        a.cfg.Mode,
				Positions:   positions,
				Funds:       funds,
				Theses:      theses,
				Run:         result,
			})
			fmt.Println(body)

			if emailReport {
				mailer := report.NewEmailer(report.EmailConfig{
					Host:      a.cfg.Report.SMTPHost,
					Port:      a.cfg.Report.SMTPPort,
					From:      a.cfg.Report.From,
					Recipient: a.cfg.Report.Recipient,
				})
				if err := mailer.Send(ctx, reportSubject(result), body); err != nil {
					// The review already happened and is on disk; a mail
					// failure must not fail the run.
					logger.ErrorWithErr(ctx, "Report email failed", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&emailReport, "email", false, "email the report after the run")
	return cmd
}

func reportSubject(result agent.Result) string {
	return fmt.Sprintf("AI Investor report: %s, %d tool calls",
		result.StopReason, len(result.Invocations))
}

func decideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decide [ticker...]",
		Short: "Run decision evaluations without the agent (no trading)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			defer trace.Shutdown(context.Background())

			if err := a.broker.Authenticate(ctx); err != nil {
				return fmt.Errorf("broker auth: %w", err)
			}

			tickers := args
			if len(tickers) == 0 {
				tickers, err = a.reviewUniverse(ctx)
				if err != nil {
					return err
				}
			}
			if len(tickers) == 0 {
				fmt.Println("Nothing to evaluate.")
				return nil
			}

			for _, ticker := range tickers {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				argsJSON, err := json.Marshal(map[string]string{"ticker": ticker})
				if err != nil {
					return err
				}
				raw, err := a.executor.Execute(ctx, string(tools.CapEvaluateDecision), argsJSON)
				if err != nil {
					fmt.Printf("%-6s evaluation failed: %v\n", ticker, err)
					continue
				}
				var thesis struct {
					Recommendation string  `json:"recommendation"`
					Conviction     float64 `json:"conviction"`
				}
				if err := json.Unmarshal(raw, &thesis); err != nil {
					return err
				}
				fmt.Printf("%-6s %-5s conviction %.2f\n",
					ticker, strings.ToUpper(thesis.Recommendation), thesis.Conviction)
			}
			return nil
		},
	}
}

// reviewUniverse is held positions first, then shortlist candidates.
func (a *app) reviewUniverse(ctx context.Context) ([]string, error) {
	var tickers []string
	seen := map[string]bool{}

	positions, err := a.broker.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range positions {
		if !seen[p.Ticker] {
			seen[p.Ticker] = true
			tickers = append(tickers, p.Ticker)
		}
	}

	cache, err := a.shortlist.Ensure(ctx)
	if err != nil {
		logger.Warn(ctx, "Shortlist unavailable, evaluating positions only", "error", err)
		return tickers, nil
	}
	for _, c := range cache.Tickers {
		if !seen[c.Ticker] {
			seen[c.Ticker] = true
			tickers = append(tickers, c.Ticker)
		}
	}
	return tickers, nil
}

func positionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Print current positions and funds",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			defer trace.Shutdown(context.Background())

			if err := a.broker.Authenticate(ctx); err != nil {
				return fmt.Errorf("broker auth: %w", err)
			}
			positions, err := a.broker.ListPositions(ctx)
			if err != nil {
				return err
			}
			funds, err := a.broker.AvailableFunds(ctx)
			if err != nil {
				return err
			}

			w := os.Stdout
			fmt.Fprintf(w, "%-6s %10s %12s %12s %14s\n", "TICKER", "QTY", "AVG", "NOW", "VALUE")
			for _, p := range positions {
				fmt.Fprintf(w, "%-6s %10.0f %12.2f %12.2f %14.2f\n",
					p.Ticker, p.Quantity, p.AveragePrice, p.CurrentPrice, p.MarketValue)
			}
			fmt.Fprintf(w, "\nCash: %.2f %s  Invested: %.2f  Total: %.2f\n",
				funds.AvailableCash, funds.Currency, funds.InvestedValue, funds.TotalValue)
			return nil
		},
	}
}
