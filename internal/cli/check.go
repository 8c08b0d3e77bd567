package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/ownfunds/internal/llm"
	"github.com/ppiankov/ownfunds/internal/validate"
	"github.com/spf13/cobra"
)

var checkTimeout time.Duration

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the tables and check the LLM provider is reachable",
	Long: `Check loads the schema, rules and consistency checks, then asks the
configured provider whether it is reachable. It exits non-zero on the
first failure.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 15*time.Second, "provider availability timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := appConfig

	store, table, err := loadTables(cfg.Tables)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Schema %s: %d rows (%s)\n", store.Template(), len(store.Rows()), store.Source())
	fmt.Fprintf(out, "✓ Rules: %d concepts (%s)\n", len(table.Concepts()), table.Source())

	checks, err := validate.LoadChecks(cfg.Tables.Checks)
	if err != nil {
		return fmt.Errorf("load checks: %w", err)
	}
	fmt.Fprintf(out, "✓ Checks: %d compiled\n", len(checks))

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()
	if !provider.IsAvailable(ctx) {
		return fmt.Errorf("provider %s is not reachable", provider.Name())
	}
	fmt.Fprintf(out, "✓ Provider %s is reachable\n", provider.Name())

	return nil
}
