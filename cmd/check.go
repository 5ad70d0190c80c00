/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"mellivora/store"
)

var checkCode string
var checkName string

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Inspect one fund's stored data",
	Long: `Inspect one fund's stored data: profile, NAV record count and the most
recent observations. Useful for verifying a sync actually landed.`,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		ctx := context.Background()

		profiles, err := st.QueryProfiles(ctx, store.ProfileFilter{
			Code:         checkCode,
			NameContains: checkName,
		}, 10)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to query fund profiles")
		}
		if len(profiles) == 0 {
			log.Info().Str("code", checkCode).Str("name", checkName).Msg("No matching funds")
			return
		}

		for _, profile := range profiles {
			count, err := st.NavRecordCount(ctx, profile.ID)
			if err != nil {
				log.Error().Err(err).Str("code", profile.Code).Msg("Failed to count NAV records")
				continue
			}
			log.Info().Str("code", profile.Code).Str("name", profile.Name).
				Int64("nav_records", count).Msg("Fund")

			recent, err := st.RecentNavs(ctx, profile.ID, 5)
			if err != nil {
				log.Error().Err(err).Str("code", profile.Code).Msg("Failed to fetch recent NAVs")
				continue
			}
			for _, nav := range recent {
				log.Info().Str("date", nav.NavDate.Format(time.DateOnly)).
					Str("unit_nav", nav.UnitNav.String()).
					Str("accumulated_nav", nav.AccumulatedNav.String()).
					Msg("NAV")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkCode, "code", "", "Fund code to look up")
	checkCmd.Flags().StringVar(&checkName, "name", "", "Fund name fragment to look up")
}
