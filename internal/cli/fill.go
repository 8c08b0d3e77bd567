package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	fillFile    string
	outJSON     string
	outMD       string
	fillTimeout time.Duration
	noSummary   bool
)

// fillCmd represents the fill command
var fillCmd = &cobra.Command{
	Use:   "fill [text]",
	Short: "Fill the own funds template from one scenario",
	Long: `Fill extracts the figures stated in a scenario and maps them onto
the template rows:
- Extract (concept, amount, unit) facts with the configured LLM provider
- Normalize amounts to minor units
- Populate rows through the concept rules and compute totals
- Flag missing required rows, unmatched facts and failed checks
- Print the calculation trail and the rules that were applied

The scenario is taken from the arguments, --file, or standard input.

Example:
  ownfunds fill "The bank has £50M ordinary share capital and £80M retained earnings"
  ownfunds fill --file scenario.txt --json report.json --md report.md
  echo "£20M share premium" | ownfunds fill --provider groq --json -`,
	RunE: runFill,
}

func init() {
	rootCmd.AddCommand(fillCmd)

	fillCmd.Flags().StringVarP(&fillFile, "file", "f", "", "read the scenario from a file")
	fillCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (- for stdout)")
	fillCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	fillCmd.Flags().DurationVar(&fillTimeout, "timeout", 2*time.Minute, "overall timeout")
	fillCmd.Flags().BoolVar(&noSummary, "no-summary", false, "do not print the terminal summary")
}

func runFill(cmd *cobra.Command, args []string) error {
	text, err := readScenario(args, fillFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), fillTimeout)
	defer cancel()

	engine, err := newEngine(appConfig, nil)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Extracting facts with %s...\n", appConfig.LLM.Provider)
	}

	report, err := engine.ProcessScenario(ctx, text)
	if err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d facts\n", report.Extraction.Facts)
		fmt.Fprintf(os.Stderr, "✓ Populated %d rows\n", len(report.Rows))
		fmt.Fprintf(os.Stderr, "✓ Found %d issue(s)\n", len(report.Issues))
		fmt.Fprintln(os.Stderr)
	}

	jsonPath := outJSON
	if outJSON == "-" {
		jsonPath = ""
		if err := engine.Renderer().WriteJSON(cmd.OutOrStdout(), report); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if err := engine.RenderReport(report, jsonPath, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if !noSummary && outJSON != "-" {
		engine.Renderer().WriteSummary(cmd.OutOrStdout(), report)
	}

	return nil
}

// readScenario takes the scenario from args, then file, then stdin
func readScenario(args []string, file string, stdin io.Reader) (string, error) {
	var text string
	switch {
	case len(args) > 0 && file != "":
		return "", errors.New("give the scenario as arguments or --file, not both")
	case len(args) > 0:
		text = strings.Join(args, " ")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read scenario: %w", err)
		}
		text = string(data)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("no scenario text given")
	}
	return text, nil
}
