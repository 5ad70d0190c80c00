/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"mellivora/jobs"
)

// autoMigrateCmd represents the autoMigrate command
var autoMigrateCmd = &cobra.Command{
	Use:   "autoMigrate",
	Short: "Auto migrate the database",
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()

		if err := st.Migrate(); err != nil {
			log.Panic().Err(err).Msg("Error migrating fund store tables")
		}
		if err := st.DB().AutoMigrate(&jobs.ScheduledJob{}); err != nil {
			log.Panic().Err(err).Msg("Error migrating ScheduledJob")
		}
	},
}

func init() {
	rootCmd.AddCommand(autoMigrateCmd)
}
