/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"time"

	"github.com/reugn/go-quartz/quartz"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mellivora/jobs"
	"mellivora/navsync"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a full profile and NAV sync",
	Long: `Run a full profile and NAV sync. Crawls the fund listing, upserts every
profile and schedules one NAV history sync job per fund, then waits for the
scheduler to drain.`,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		jobs.Init(st.DB())
		navsync.Register(st.DB(), viper.GetString("sync.base_url"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		jobs.Scheduler.Start(ctx)

		job := &navsync.ProfileSync{}
		jobDetail := quartz.NewJobDetail(job, quartz.NewJobKeyWithGroup("full-sync", "ProfileSync"))
		if err := jobs.Scheduler.ScheduleJob(jobDetail, quartz.NewRunOnceTrigger(time.Second*1)); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule profile sync")
		}

		jobs.Scheduler.Wait(ctx)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
