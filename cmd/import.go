package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/operator-ingest/wardround-cli/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Process every unprocessed round once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Importer.ProcessImports(ctx)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("no unprocessed rounds")
			return nil
		}
		for _, result := range results {
			if result.Error != "" {
				fmt.Printf("%s: failed: %s\n", result.RoundID, result.Error)
				continue
			}
			counts := map[model.OutcomeStatus]int{}
			for _, outcome := range result.Patients {
				counts[outcome.Status]++
			}
			fmt.Printf("%s: %d cards (%d applied, %d pending, %d skipped, %d failed)\n",
				result.RoundID, len(result.Patients),
				counts[model.OutcomeApplied], counts[model.OutcomePending],
				counts[model.OutcomeSkipped], counts[model.OutcomeFailed],
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
