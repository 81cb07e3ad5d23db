// Package main replays a fixture feed through the full pipeline and
// prints the resulting wallet leaderboard. Useful for scoring a
// historical event dump offline.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"anubis-watch/internal/aggregator"
	"anubis-watch/internal/alerting"
	"anubis-watch/internal/config"
	"anubis-watch/internal/feed"
	"anubis-watch/internal/pipeline"
	"anubis-watch/internal/scoring"
	"anubis-watch/internal/storage/memory"
)

func main() {
	fixturePath := flag.String("fixture", "", "Path to a JSONL file of feed messages")
	configPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	top := flag.Int("top", 20, "Leaderboard size")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: scan -fixture events.jsonl [-config config.yaml] [-top 20]")
		os.Exit(1)
	}

	cfg := config.DefaultConfig
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(&cfg, *fixturePath, *top); err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, fixturePath string, top int) error {
	events, skipped, err := loadFixture(fixturePath)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d events (%d malformed lines skipped)\n\n", len(events), skipped)

	profiles := memory.NewProfileStore()
	launches := memory.NewLaunchStore()
	snapshots := memory.NewSnapshotStore()
	alerts := memory.NewAlertStore()

	agg := aggregator.New(aggregator.Options{
		Profiles: profiles,
		Launches: launches,
		Config:   cfg.Aggregator,
	})
	runner := pipeline.New(pipeline.Options{
		Source:     feed.NewStubSource(events...),
		Aggregator: agg,
		Engine:     scoring.New(scoring.Options{Config: cfg.Scoring}),
		Alerter: alerting.New(alerting.Options{
			Policy: alerting.NewPolicy(cfg.Alerts),
			Alerts: alerts,
		}),
		Profiles:  profiles,
		Snapshots: snapshots,
		Config:    config.PipelineConfig{Workers: cfg.Pipeline.Workers},
		Logger:    zap.NewNop(),
	})

	ctx := context.Background()
	if err := runner.Run(ctx); err != nil {
		return err
	}

	leaders, err := profiles.TopByScore(ctx, top)
	if err != nil {
		return err
	}

	fmt.Printf("%-44s %7s %-8s %-8s %8s %9s\n",
		"WALLET", "SCORE", "TIER", "RISK", "LAUNCHES", "SUCCESSES")
	for _, p := range leaders {
		score, tier, risk := "-", "-", "-"
		if p.LatestScore != nil {
			score = fmt.Sprintf("%.1f", p.LatestScore.AnubisScore)
			tier = string(p.LatestScore.DeveloperTier)
			risk = string(p.LatestScore.RiskRating)
		}
		fmt.Printf("%-44s %7s %-8s %-8s %8d %9d\n",
			p.Wallet, score, tier, risk, p.TotalLaunches, p.SuccessfulLaunches)
	}
	return nil
}

// loadFixture parses one feed message per line, skipping malformed
// lines so a partly corrupt dump still scans.
func loadFixture(path string) ([]feed.Event, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()

	var events []feed.Event
	skipped := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := feed.Decode(line)
		if err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading fixture: %w", err)
	}
	return events, skipped, nil
}
