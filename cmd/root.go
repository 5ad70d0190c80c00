/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mellivora/store"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mellivora",
	Short: "Fund NAV and returns service",
	Long: `Mellivora serves mutual fund profiles, NAV history and trailing-period
returns over HTTP, and keeps the underlying store in sync with the upstream
fund data site.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cfgFile string

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(setuplogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mellivora.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "Set log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-out", "stdout", "Set log output (stdout, observe, file)")
	viper.BindPFlag("log.out", rootCmd.PersistentFlags().Lookup("log-out"))

	rootCmd.PersistentFlags().String("log-file", "app.log", "Set log file (used when log-out is file)")
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func setuplogger() {
	// Set up logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var logWriter io.Writer
	logOut := viper.GetString("log.out")
	switch logOut {
	case "stdout":
		logWriter = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: false, TimeFormat: time.RFC822}
	case "observe":
		logWriter = OpenObserveWriter{}
	default:
		logFile := viper.GetString("log.file")
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal().Err(err).Str("log-file", logFile).Msg("Error opening log file")
		}
		logWriter = zerolog.ConsoleWriter{Out: file, NoColor: true, TimeFormat: time.RFC1123}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("log.level")))
	if err != nil {
		level = zerolog.ErrorLevel
	}

	zerolog.TimestampFieldName = "timestamp"
	log.Logger = zerolog.New(logWriter).Level(level).With().Timestamp().Logger()
}

type OpenObserveWriter struct{}

func (w OpenObserveWriter) Write(data []byte) (n int, err error) {
	req, _ := http.NewRequest("POST", viper.GetString("openobserve.url"), strings.NewReader(string(data)))
	req.SetBasicAuth(viper.GetString("openobserve.user"), viper.GetString("openobserve.password"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return len(data), nil
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".mellivora" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mellivora")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatal().Err(err).Msg("Error reading config file")
	}
	fmt.Println("Using config file:", viper.ConfigFileUsed())
}

func openStore() *store.Store {
	st, err := store.Open(viper.GetString("db.dsn"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open fund store")
	}
	return st
}
