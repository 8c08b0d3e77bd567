package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/ppiankov/ownfunds/internal/rules"
	"github.com/ppiankov/ownfunds/internal/schema"
	"github.com/spf13/cobra"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the loaded template rows and concept rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, table, err := loadTables(appConfig.Tables)
		if err != nil {
			return err
		}
		printTables(cmd.OutOrStdout(), store, table)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func loadTables(cfg model.TablesConfig) (*schema.Store, *rules.Table, error) {
	store := schema.NewStore()
	if _, err := store.Load(cfg.Schema); err != nil {
		return nil, nil, err
	}
	table := rules.NewTable()
	if _, err := table.Load(cfg.Rules, store); err != nil {
		return nil, nil, err
	}
	return store, table, nil
}

func printTables(w io.Writer, store *schema.Store, table *rules.Table) {
	fmt.Fprintf(w, "%s (%s)  schema: %s\n", store.Template(), store.Currency(), store.Source())
	fmt.Fprintln(w, strings.Repeat("─", 72))
	for _, row := range store.Rows() {
		fmt.Fprintf(w, "  %-5s %-10s %-40s %s\n", row.ID, row.Role, row.Description, row.Reference)
	}

	fmt.Fprintf(w, "\nRules  %s\n", table.Source())
	fmt.Fprintln(w, strings.Repeat("─", 72))
	for _, rule := range table.Ordered() {
		fmt.Fprintf(w, "  %-30s %-5s %s  %s\n", rule.Concept, rule.RowID, rule.Sign, rule.Reference)
	}
}
