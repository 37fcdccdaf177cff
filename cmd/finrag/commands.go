package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/finrag"
	"github.com/poiesic/finrag/config"
	"github.com/poiesic/finrag/core"
	"github.com/poiesic/finrag/indexing"
	"github.com/poiesic/finrag/query"
	"github.com/poiesic/finrag/records"
	"github.com/poiesic/finrag/report"
	"github.com/poiesic/finrag/sample"
	"github.com/poiesic/finrag/synthesis"
	"github.com/urfave/cli/v2"
)

// newProvider builds the AI provider for commands that open the index.
var newProvider = finrag.NewProvider

func loadSettings(c *cli.Context) (*config.File, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := c.String("index-dir"); dir != "" {
		cfg.Index.Dir = dir
	}
	return cfg, nil
}

func openIndex(c *cli.Context) (*finrag.Index, *config.File, error) {
	cfg, err := loadSettings(c)
	if err != nil {
		return nil, nil, err
	}
	policy, err := cfg.SynthesisPolicy()
	if err != nil {
		return nil, nil, err
	}

	provider, err := newProvider(cfg.AIConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	idx, err := finrag.Open(cfg.Index.Dir, finrag.WithProvider(provider), finrag.WithPolicy(policy))
	if err != nil {
		provider.Close()
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, cfg, nil
}

// loadRecords reads a workbook, or a directory of per-table files.
func loadRecords(path string) (*core.RecordSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return records.LoadDirectory(path)
	}
	return records.LoadWorkbook(path)
}

func builderOptions(cfg *config.File, progress io.Writer) []indexing.Option {
	opts := []indexing.Option{
		indexing.WithBatchSize(cfg.Index.BatchSize),
		indexing.WithEmbeddingModel(cfg.AI.EmbeddingModel),
	}
	if cfg.Index.Workers > 0 {
		opts = append(opts, indexing.WithPoolSize(cfg.Index.Workers))
	}
	if progress != nil {
		opts = append(opts, indexing.WithProgress(progress))
	}
	return opts
}

func generateCommand(c *cli.Context) error {
	opts := sample.DefaultOptions()
	opts.Receivables = c.Int("ar-records")
	opts.Claims = c.Int("claims-records")
	opts.BudgetYears = c.Int("budget-years")
	opts.Year = c.Int("year")
	if opts.Receivables < 1 {
		return fmt.Errorf("ar-records must be greater than 0")
	}
	if opts.Claims < 0 || opts.BudgetYears < 0 {
		return fmt.Errorf("claims-records and budget-years cannot be negative")
	}

	set := sample.NewGenerator(c.Uint64("seed")).Generate(opts)

	output := c.String("output")
	var err error
	if strings.EqualFold(filepath.Ext(output), ".xlsx") {
		err = records.WriteWorkbook(output, set)
	} else {
		err = records.WriteDirectory(output, set)
	}
	if err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Records written to %s\n", output)
	fmt.Fprintf(w, "  Accounts Receivable: %d\n", len(set.Receivables))
	fmt.Fprintf(w, "  Payments: %d\n", len(set.Payments))
	fmt.Fprintf(w, "  General Ledger: %d\n", len(set.Ledger))
	fmt.Fprintf(w, "  Budget Forecast: %d\n", len(set.Budget))
	fmt.Fprintf(w, "  Expense Claims: %d\n", len(set.Claims))
	return nil
}

func buildCommand(c *cli.Context) error {
	set, err := loadRecords(c.String("input"))
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	idx, cfg, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	var progress io.Writer
	if c.Bool("progress") {
		progress = c.App.ErrWriter
	}

	manifest, err := idx.Ingest(c.Context, set, builderOptions(cfg, progress)...)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Indexed %s documents into %s (build %s)\n",
		humanize.Comma(int64(manifest.Documents)), idx.Dir(), manifest.BuildId)
	return nil
}

func reindexCommand(c *cli.Context) error {
	idx, cfg, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	builder, err := idx.NewBuilder(builderOptions(cfg, c.App.ErrWriter)...)
	if err != nil {
		return err
	}
	defer builder.Release()

	manifest, err := builder.Rebuild(c.Context)
	if err != nil {
		var notBuilt *core.IndexNotBuiltError
		if errors.As(err, &notBuilt) {
			return &core.IndexNotBuiltError{Location: idx.Dir()}
		}
		return fmt.Errorf("reindex failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Re-embedded %s documents with %s (build %s)\n",
		humanize.Comma(int64(manifest.Documents)), manifest.EmbeddingModel, manifest.BuildId)
	return nil
}

func newEngine(idx *finrag.Index, cfg *config.File, topK int) (*query.Engine, error) {
	if topK == 0 {
		topK = cfg.Query.TopK
	}
	return idx.NewEngine(query.WithTopK(topK), query.WithMinScore(cfg.Query.MinScore))
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	idx, cfg, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	engine, err := newEngine(idx, cfg, c.Int("top-k"))
	if err != nil {
		return err
	}

	var monitor query.Monitor
	if c.Bool("trace") {
		monitor = newTraceMonitor(c.App.ErrWriter)
	}

	result, err := engine.AskWithMonitor(c.Context, question, monitor)
	if err != nil {
		return err
	}
	printResult(c.App.Writer, result)
	return nil
}

func interactiveCommand(c *cli.Context) error {
	idx, cfg, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	manifest, err := idx.Load(c.Context)
	if err != nil {
		return err
	}
	engine, err := newEngine(idx, cfg, 0)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%s documents indexed. Type 'exit' or 'quit' to end the session.\n",
		humanize.Comma(int64(manifest.Documents)))

	scanner := bufio.NewScanner(c.App.Reader)
	for {
		fmt.Fprint(w, "\n> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit", "q":
			fmt.Fprintln(w, "Goodbye!")
			return nil
		}

		result, err := engine.Ask(c.Context, question)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		printResult(w, result)
	}
	fmt.Fprintln(w)
	return scanner.Err()
}

func printResult(w io.Writer, result *core.QueryResult) {
	fmt.Fprintln(w, result.Summary)
	if result.Confidence != "" {
		fmt.Fprintf(w, "\nConfidence: %s\n", result.Confidence)
	}
	if len(result.Evidence) == 0 {
		return
	}
	fmt.Fprintln(w, "\nEvidence:")
	for i, ev := range result.Evidence {
		fmt.Fprintf(w, "  [%d] %s %s (%.3f)\n", i+1, ev.Document.RecordType, ev.Document.RecordId, ev.Score)
	}
}

func findingsFor(c *cli.Context) (*core.RecordSet, []synthesis.Finding, synthesis.Policy, error) {
	cfg, err := loadSettings(c)
	if err != nil {
		return nil, nil, synthesis.Policy{}, err
	}
	policy, err := cfg.SynthesisPolicy()
	if err != nil {
		return nil, nil, synthesis.Policy{}, err
	}

	set, err := loadRecords(c.String("input"))
	if err != nil {
		return nil, nil, policy, fmt.Errorf("failed to load records: %w", err)
	}
	findings, err := synthesis.FindDiscrepancies(set, policy)
	if err != nil {
		return nil, nil, policy, err
	}
	return set, findings, policy, nil
}

func discrepanciesCommand(c *cli.Context) error {
	_, findings, _, err := findingsFor(c)
	if err != nil {
		return err
	}
	return report.WriteFindings(c.App.Writer, findings)
}

func reportCommand(c *cli.Context) error {
	set, findings, policy, err := findingsFor(c)
	if err != nil {
		return err
	}

	output := c.String("output")
	if output == "" {
		return report.Write(c.App.Writer, set, findings, policy)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := report.Write(f, set, findings, policy); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Report saved to %s\n", output)
	return nil
}

func statusCommand(c *cli.Context) error {
	idx, _, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	manifest, err := idx.Load(c.Context)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Index: %s\n", idx.Dir())
	fmt.Fprintf(w, "Build: %s\n", manifest.BuildId)
	fmt.Fprintf(w, "Documents: %s\n", humanize.Comma(int64(manifest.Documents)))
	fmt.Fprintf(w, "Dimension: %d\n", manifest.Dimension)
	if manifest.EmbeddingModel != "" {
		fmt.Fprintf(w, "Embedding model: %s\n", manifest.EmbeddingModel)
	}
	fmt.Fprintf(w, "Built: %s (%s)\n", manifest.BuiltAt.Format("2006-01-02 15:04:05"), humanize.Time(manifest.BuiltAt))
	return nil
}

func teardownCommand(c *cli.Context) error {
	if !c.Bool("force") {
		return fmt.Errorf("teardown removes every indexed document: rerun with --force")
	}

	idx, _, err := openIndex(c)
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.Teardown(c.Context); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Index at %s cleared\n", idx.Dir())
	return nil
}

func configCommand(c *cli.Context) error {
	cfg, err := loadSettings(c)
	if err != nil {
		return err
	}
	cfg.AI.EmbeddingToken = redact(cfg.AI.EmbeddingToken)
	cfg.AI.GeneratorToken = redact(cfg.AI.GeneratorToken)
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func redact(token string) string {
	if token == "" || token == "none" {
		return token
	}
	return "<redacted>"
}
