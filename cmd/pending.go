package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pendingRoundID string

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Inspect and resolve the pending-update queue",
}

var pendingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending updates awaiting manual resolution",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		pending, err := env.Store.ListPendingUpdates(ctx, pendingRoundID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Println("no pending updates")
			return nil
		}
		for _, u := range pending {
			fmt.Printf("%s  patient=%s round=%s reason=%s confidence=%.2f\n",
				u.ID, u.PatientID, u.RoundID, u.Reason, u.Confidence)
			if u.LLMNotes != "" {
				fmt.Printf("    notes: %s\n", u.LLMNotes)
			}
		}
		return nil
	},
}

var pendingResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Delete a pending update after manual review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.DeletePendingUpdate(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("resolved %s\n", args[0])
		return nil
	},
}

func init() {
	pendingListCmd.Flags().StringVar(&pendingRoundID, "round", "", "filter by round id")
	pendingCmd.AddCommand(pendingListCmd)
	pendingCmd.AddCommand(pendingResolveCmd)
	rootCmd.AddCommand(pendingCmd)
}
