package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/ownfunds/internal/pipeline"
	"github.com/ppiankov/ownfunds/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fill the template for many scenarios in parallel",
	Long: `Batch processes a file of scenarios concurrently:
- One scenario per paragraph, paragraphs separated by blank lines
- Lines starting with # are comments
- Provider calls are throttled by batch.requests_per_second
- One JSON and one Markdown report per scenario

Example:
  ownfunds batch scenarios.txt
  ownfunds batch scenarios.txt --concurrency 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: batch.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./ownfunds-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	cfg := appConfig
	if concurrency > 0 {
		cfg.Batch.Workers = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Ownfunds Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Batch.Workers)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", cfg.LLM.Provider)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	limiter := worker.NewLimiter(cfg.Batch.RequestsPerSecond, cfg.Batch.BurstSize)
	engine, err := newEngine(cfg, limiter)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(engine, cfg.Batch.Workers)

	fmt.Fprintf(os.Stderr, "⚙️  Processing scenarios with %d workers...\n\n", cfg.Batch.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	s := writeBatchReports(results, engine.Renderer(), outputDir)

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:        %d scenarios\n", len(results))
	fmt.Fprintf(os.Stderr, "  Clean:        %d\n", s.clean)
	fmt.Fprintf(os.Stderr, "  With issues:  %d\n", s.withIssues)
	fmt.Fprintf(os.Stderr, "  Failures:     %d\n", s.failed)
	fmt.Fprintf(os.Stderr, "  Output:       %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if s.failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", s.failed, len(results))
	}
	return nil
}

type batchSummary struct {
	clean, withIssues, failed int
}

// writeBatchReports writes scenario-NNN.json and .md for each successful result
func writeBatchReports(results []*worker.ScenarioResult, renderer *pipeline.Renderer, dir string) batchSummary {
	var s batchSummary

	for _, result := range results {
		name := reportBaseName(result.Index)
		if result.Error != nil {
			s.failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", name, result.Error)
			continue
		}

		jsonPath := filepath.Join(dir, name+".json")
		mdPath := filepath.Join(dir, name+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			s.failed++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", name, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			s.failed++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", name, err)
			continue
		}

		if result.Report.Valid() {
			s.clean++
			fmt.Fprintf(os.Stderr, "✓ %s  %s\n", name, result.Report.Explanation.Trail)
		} else {
			s.withIssues++
			fmt.Fprintf(os.Stderr, "⚠ %s  %s (%d issue(s))\n", name, result.Report.Explanation.Trail, len(result.Report.Issues))
		}
	}

	return s
}

func reportBaseName(index int) string {
	return fmt.Sprintf("scenario-%03d", index+1)
}
