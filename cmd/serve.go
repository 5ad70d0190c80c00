/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"mellivora/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Run the HTTP API server. Exposes fund lookup, NAV-and-returns and
multi-fund comparison endpoints, plus the scheduler and admin sync routes.`,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		api.RunServer(st)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
