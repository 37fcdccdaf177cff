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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/finrag/sample"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	defaults := sample.DefaultOptions()

	return &cli.App{
		Name:  "finrag",
		Usage: "Ask questions about receivables, payments, ledger, budget and expense claims",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "index-dir",
				Aliases: []string{"d"},
				Usage:   "Index directory (overrides config and FINRAG_INDEX_DIR)",
			},
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
				Name:   "generate",
				Usage:  "Generate synthetic finance records",
				Action: generateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output .xlsx workbook, or a directory for per-table CSV files",
						Value:   "data/sample",
					},
					&cli.Uint64Flag{
						Name:  "seed",
						Usage: "Random seed; equal seeds give equal records",
						Value: 42,
					},
					&cli.IntFlag{
						Name:  "ar-records",
						Usage: "Number of accounts receivable records",
						Value: defaults.Receivables,
					},
					&cli.IntFlag{
						Name:  "claims-records",
						Usage: "Number of expense claims",
						Value: defaults.Claims,
					},
					&cli.IntFlag{
						Name:  "budget-years",
						Usage: "Number of budget years",
						Value: defaults.BudgetYears,
					},
					&cli.IntFlag{
						Name:  "year",
						Usage: "First fiscal year",
						Value: defaults.Year,
					},
				},
			},
			{
				Name:   "build",
				Usage:  "Load records and build the vector index",
				Action: buildCommand,
				Flags: []cli.Flag{
					inputFlag(),
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report embedding progress on stderr",
						Value: true,
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed the documents already in the index",
				Action: reindexCommand,
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the index",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of documents to retrieve (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print retrieval and prompt details",
					},
				},
			},
			{
				Name:   "interactive",
				Usage:  "Answer questions read from stdin until exit",
				Action: interactiveCommand,
			},
			{
				Name:   "discrepancies",
				Usage:  "List payment discrepancies found in the records",
				Action: discrepanciesCommand,
				Flags:  []cli.Flag{inputFlag()},
			},
			{
				Name:   "report",
				Usage:  "Write the comprehensive finance report",
				Action: reportCommand,
				Flags: []cli.Flag{
					inputFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Report file (default stdout)",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show the manifest of the current index",
				Action: statusCommand,
			},
			{
				Name:   "teardown",
				Usage:  "Remove every document from the index",
				Action: teardownCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Confirm removal",
					},
				},
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration as YAML",
				Action: configCommand,
			},
		},
	}
}

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Workbook (.xlsx) or directory of per-table .xlsx/.csv files",
		Required: true,
	}
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
