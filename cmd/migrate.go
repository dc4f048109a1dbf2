package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the base folders and state store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		fmt.Println("base folders and store ready")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
