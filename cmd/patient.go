package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	patientAddNote string
	patientAddWard string
)

var patientCmd = &cobra.Command{
	Use:   "patient",
	Short: "Manage the round list",
}

var patientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patients on the round list",
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

		patients, err := env.Store.ListPatients(ctx)
		if err != nil {
			return err
		}
		if len(patients) == 0 {
			fmt.Println("no patients")
			return nil
		}
		for _, p := range patients {
			fmt.Printf("%s  %s (mrn=%s bed=%s site=%s status=%s) issues=%d tasks=%d\n",
				p.ID, p.Name, p.MRN, p.Bed, p.Site, p.Status, len(p.Issues), len(p.Tasks))
		}
		return nil
	},
}

var patientAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Quick-add a patient to the round list",
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

		ward := patientAddWard
		if ward == "" {
			ward = cfg.Rounds.DefaultWard
		}
		patient, err := env.Store.QuickAddPatient(ctx, args[0], patientAddNote, ward)
		if err != nil {
			return err
		}
		fmt.Printf("added %s (%s)\n", patient.Name, patient.ID)
		return nil
	},
}

func init() {
	patientAddCmd.Flags().StringVar(&patientAddNote, "note", "", "scratchpad intake note")
	patientAddCmd.Flags().StringVar(&patientAddWard, "ward", "", "ward/site (default from config)")
	patientCmd.AddCommand(patientListCmd)
	patientCmd.AddCommand(patientAddCmd)
	rootCmd.AddCommand(patientCmd)
}
