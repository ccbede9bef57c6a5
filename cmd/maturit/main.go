// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/maturit"
	"github.com/poiesic/maturit/core"
	"github.com/poiesic/maturit/pipeline"
	"github.com/poiesic/maturit/rank"
	"github.com/poiesic/maturit/relevance"
	"github.com/poiesic/maturit/rubric"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "maturit",
		Usage: "Evidence retrieval and maturity scoring over partitioned disclosures",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Append a batch of evidence records to the Bronze layer",
				Action: ingestCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a YAML evidence batch file",
						Required: true,
					},
					&cli.Uint64Flag{
						Name:     "snapshot",
						Usage:    "Ingestion snapshot id for this batch",
						Required: true,
					},
				),
			},
			{
				Name:   "normalize",
				Usage:  "Derive a partition's Silver layer from its Bronze records",
				Action: normalizeCommand,
				Flags:  append(dbFlags(), partitionFlags()...),
			},
			{
				Name:   "score",
				Usage:  "Rank and score a partition's canonical evidence",
				Action: scoreCommand,
				Flags: append(append(dbFlags(), partitionFlags()...),
					&cli.StringFlag{
						Name:     "rubrics",
						Usage:    "Path to the YAML rubric file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Theme query the evidence is ranked against",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "alpha",
						Usage: "Lexical signal weight in [0,1]",
						Value: rank.DefaultAlpha,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Ranked results visible to the scorer",
						Value: maturit.DefaultTopK,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL for the relevance signal (token overlap when unset)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
				),
			},
			{
				Name:   "batch",
				Usage:  "Normalize and score many partitions over a worker pool",
				Action: batchCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a YAML batch request file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "rubrics",
						Usage:    "Path to the YAML rubric file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Worker pool size",
						Value: pipeline.DefaultWorkers,
					},
				),
			},
			{
				Name:   "audit",
				Usage:  "Re-rank a partition and validate its latest score's citations",
				Action: auditCommand,
				Flags: append(append(dbFlags(), partitionFlags()...),
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Theme query the evidence is ranked against",
						Required: true,
					},
				),
			},
			{
				Name:   "history",
				Usage:  "Print every persisted score for a partition",
				Action: historyCommand,
				Flags:  append(dbFlags(), partitionFlags()...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func partitionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "org",
			Usage:    "Organization id",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "year",
			Usage:    "Fiscal year",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "theme",
			Usage:    "Theme code",
			Required: true,
		},
	}
}

func partitionFromFlags(c *cli.Context) core.Partition {
	return core.Partition{
		OrgId:      c.String("org"),
		FiscalYear: c.Int("year"),
		ThemeCode:  c.String("theme"),
	}
}

func openEngine(c *cli.Context, extra ...maturit.Option) (maturit.Engine, error) {
	opts := append([]maturit.Option{maturit.WithFilePath(c.String("db"))}, extra...)
	engine, err := maturit.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func ingestCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	records, err := loadEvidenceFile(c.String("file"))
	if err != nil {
		return err
	}

	count, err := engine.Ingest(context.Background(), records, c.Uint64("snapshot"))
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	fmt.Printf("Ingested %d records at snapshot %d\n", count, c.Uint64("snapshot"))
	return nil
}

func normalizeCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Normalize(context.Background(), partitionFromFlags(c))
	if err != nil {
		return fmt.Errorf("normalize failed: %w", err)
	}
	fmt.Printf("Wrote %d silver records at snapshot %d\n", result.Count, result.SnapshotId)
	return nil
}

func scoreCommand(c *cli.Context) error {
	partition := partitionFromFlags(c)

	rubrics, err := rubric.LoadRubrics(c.String("rubrics"))
	if err != nil {
		return err
	}
	themeRubric, ok := rubrics[partition.ThemeCode]
	if !ok {
		return fmt.Errorf("no rubric defined for theme %q", partition.ThemeCode)
	}

	opts := []maturit.Option{
		maturit.WithAlpha(c.Float64("alpha")),
		maturit.WithTopK(c.Int("top-k")),
	}
	if host := c.String("embedding-host"); host != "" {
		scorer, err := relevance.NewEmbeddingScorer(host, c.String("embedding-model"))
		if err != nil {
			return fmt.Errorf("failed to create embedding scorer: %w", err)
		}
		opts = append(opts, maturit.WithRelevanceScorer(scorer))
	}

	engine, err := openEngine(c, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	score, err := engine.Score(context.Background(), partition, c.String("query"), themeRubric)
	if err != nil {
		return fmt.Errorf("score failed: %w", err)
	}
	printScore(score)
	return nil
}

func batchCommand(c *cli.Context) error {
	rubrics, err := rubric.LoadRubrics(c.String("rubrics"))
	if err != nil {
		return err
	}
	requests, err := loadBatchFile(c.String("file"), rubrics)
	if err != nil {
		return err
	}

	engine, err := openEngine(c, maturit.WithWorkers(c.Int("workers")))
	if err != nil {
		return err
	}
	defer engine.Close()

	manifest, outcomes, err := engine.RunBatch(context.Background(), requests)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			fmt.Printf("%s: %s (%v)\n", outcome.Partition.Key(), outcome.Status, outcome.Err)
			continue
		}
		fmt.Printf("%s: %s\n", outcome.Partition.Key(), outcome.Status)
	}
	fmt.Printf("Run %s: %d requested, %d scored, %d withheld, %d failed\n",
		manifest.RunId, manifest.Requested, manifest.Scored, manifest.NoScore, manifest.Failed)
	return nil
}

func auditCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Audit(context.Background(), partitionFromFlags(c), c.String("query"))
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}
	if result.Pass {
		fmt.Println("PASS")
		return nil
	}
	fmt.Printf("FAIL: %s\n", strings.Join(result.Violations, ", "))
	return cli.Exit("parity audit failed", 1)
}

func historyCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	history, err := engine.ScoreHistory(context.Background(), partitionFromFlags(c))
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}
	fmt.Printf("%d scores\n", len(history))
	for _, score := range history {
		printScore(score)
	}
	return nil
}

func printScore(score *core.Score) {
	stage := "null"
	if score.Stage != nil {
		stage = fmt.Sprint(*score.Stage)
	}
	fmt.Printf("%s stage=%s confidence=%.2f reason=%s snapshot=%d frameworks=[%s] evidence=%d\n",
		score.Partition().Key(), stage, score.Confidence, score.Reason, score.SnapshotId,
		strings.Join(score.Frameworks, ", "), len(score.EvidenceIds))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
