package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/finrag/ai"
	"github.com/poiesic/finrag/ai/mock"
	"github.com/poiesic/finrag/config"
	"github.com/poiesic/finrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// run executes the CLI with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"finrag"}, args...))
	return out.String(), err
}

func useMockProvider(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvOpenAIKey, "")
	t.Setenv(config.EnvAnthropicKey, "")
	t.Setenv(config.EnvIndexDir, "")

	saved := newProvider
	newProvider = func(*ai.Config) (ai.AIProvider, error) {
		return mock.NewMockProvider(), nil
	}
	t.Cleanup(func() { newProvider = saved })
}

func generateRecords(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "records")
	_, err := run(t, "", "generate", "--output", dir, "--ar-records", "12", "--claims-records", "8", "--budget-years", "1")
	require.NoError(t, err)
	return dir
}

func findFlag(cmd *cli.Command, name string) cli.Flag {
	for _, flag := range cmd.Flags {
		for _, n := range flag.Names() {
			if n == name {
				return flag
			}
		}
	}
	return nil
}

func TestApp_Commands(t *testing.T) {
	app := newApp()
	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{
		"generate", "build", "reindex", "ask", "interactive",
		"discrepancies", "report", "status", "teardown", "config",
	}, names)

	t.Run("input is required for record commands", func(t *testing.T) {
		for _, cmd := range app.Commands {
			switch cmd.Name {
			case "build", "discrepancies", "report":
				flag, ok := findFlag(cmd, "input").(*cli.StringFlag)
				require.True(t, ok, cmd.Name)
				assert.True(t, flag.Required, cmd.Name)
			}
		}
	})

	t.Run("generate defaults", func(t *testing.T) {
		generate := app.Command("generate")
		require.NotNil(t, generate)
		seed, ok := findFlag(generate, "seed").(*cli.Uint64Flag)
		require.True(t, ok)
		assert.Equal(t, uint64(42), seed.Value)
		records, ok := findFlag(generate, "ar-records").(*cli.IntFlag)
		require.True(t, ok)
		assert.Equal(t, 100, records.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	useMockProvider(t)

	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			_, err := run(t, "", "--log-level", level, "config")
			assert.NoError(t, err)
		})
	}

	t.Run("invalid level", func(t *testing.T) {
		_, err := run(t, "", "--log-level", "verbose", "config")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestGenerate(t *testing.T) {
	t.Run("csv directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		out, err := run(t, "", "generate", "-o", dir, "--ar-records", "5", "--claims-records", "3", "--budget-years", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "Accounts Receivable: 5")
		assert.Contains(t, out, "General Ledger: 5")
		assert.Contains(t, out, "Budget Forecast: 24")
		assert.Contains(t, out, "Expense Claims: 3")

		for _, name := range []string{"accounts_receivable", "payments", "general_ledger", "budget_forecast", "expense_claims"} {
			assert.FileExists(t, filepath.Join(dir, name+".csv"))
		}
	})

	t.Run("workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "finance.xlsx")
		_, err := run(t, "", "generate", "-o", path, "--ar-records", "5", "--claims-records", "3")
		require.NoError(t, err)
		assert.FileExists(t, path)

		out, err := run(t, "", "discrepancies", "-i", path)
		require.NoError(t, err)
		assert.Contains(t, out, "discrepancies (critical")
	})

	t.Run("rejects empty receivables", func(t *testing.T) {
		_, err := run(t, "", "generate", "-o", t.TempDir(), "--ar-records", "0")
		assert.Error(t, err)
	})
}

func TestDiscrepanciesAndReport(t *testing.T) {
	useMockProvider(t)
	dir := generateRecords(t)

	out, err := run(t, "", "discrepancies", "--input", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Found ")

	out, err = run(t, "", "report", "--input", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "COMPREHENSIVE FINANCE REPORT")
	assert.Contains(t, out, "Total Invoices: 12")
	assert.Contains(t, out, "RECOMMENDATIONS")

	reportPath := filepath.Join(t.TempDir(), "report.txt")
	out, err = run(t, "", "report", "--input", dir, "--output", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Report saved to")
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ACCOUNTS RECEIVABLE SUMMARY")

	_, err = run(t, "", "report", "--input", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIndexLifecycle(t *testing.T) {
	useMockProvider(t)
	records := generateRecords(t)
	indexDir := filepath.Join(t.TempDir(), "finrag_db")

	_, err := run(t, "", "--index-dir", indexDir, "status")
	assert.ErrorIs(t, err, core.ErrIndexNotBuilt)

	_, err = run(t, "", "--index-dir", indexDir, "ask", "Which payments are overdue?")
	assert.ErrorIs(t, err, core.ErrIndexNotBuilt)

	out, err := run(t, "", "--index-dir", indexDir, "build", "--input", records)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed ")
	assert.Contains(t, out, indexDir)

	out, err = run(t, "", "--index-dir", indexDir, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents: ")
	assert.Contains(t, out, "Dimension: 384")

	out, err = run(t, "", "--index-dir", indexDir, "ask", "--top-k", "2", "Which", "payments", "are", "overdue?")
	require.NoError(t, err)
	assert.Contains(t, out, "mock answer")
	assert.Contains(t, out, "Evidence:")
	assert.Contains(t, out, "  [2] ")
	assert.NotContains(t, out, "  [3] ")

	out, err = run(t, "", "--index-dir", indexDir, "reindex")
	require.NoError(t, err)
	assert.Contains(t, out, "Re-embedded ")

	out, err = run(t, "Show me pending expense claims\n\nquit\n", "--index-dir", indexDir, "interactive")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "mock answer"))
	assert.Contains(t, out, "Goodbye!")

	_, err = run(t, "", "--index-dir", indexDir, "teardown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	out, err = run(t, "", "--index-dir", indexDir, "teardown", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")

	_, err = run(t, "", "--index-dir", indexDir, "status")
	assert.ErrorIs(t, err, core.ErrIndexNotBuilt)

	_, err = run(t, "", "--index-dir", indexDir, "reindex")
	assert.ErrorIs(t, err, core.ErrIndexNotBuilt)
}

func TestAsk_Trace(t *testing.T) {
	useMockProvider(t)
	records := generateRecords(t)
	indexDir := t.TempDir()

	_, err := run(t, "", "-d", indexDir, "build", "-i", records, "--progress=false")
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	require.NoError(t, app.Run([]string{"finrag", "-d", indexDir, "ask", "--trace", "Which payments are overdue?"}))

	trace := errOut.String()
	assert.Contains(t, trace, "intent overdue")
	assert.Contains(t, trace, "trace: retrieved 5 documents")
	assert.Contains(t, trace, "Detected intent: overdue")
	assert.Contains(t, trace, "trace: reply")
	assert.Contains(t, out.String(), "mock answer")
}

func TestAsk_RequiresQuestion(t *testing.T) {
	useMockProvider(t)
	_, err := run(t, "", "-d", t.TempDir(), "ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question is required")
}

func TestConfigCommand(t *testing.T) {
	useMockProvider(t)
	t.Setenv(config.EnvOpenAIKey, "sk-secret")
	path := filepath.Join(t.TempDir(), "finrag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query:\n  top_k: 9\n"), 0644))

	out, err := run(t, "", "--config", path, "--index-dir", "/srv/finrag", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "top_k: 9")
	assert.Contains(t, out, "dir: /srv/finrag")
	assert.Contains(t, out, "<redacted>")
	assert.NotContains(t, out, "sk-secret")
}
