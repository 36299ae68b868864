package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	flagLogLevel string

	rootCmd = &cobra.Command{
		Use:   "fairdraw",
		Short: "fairdraw runs verifiable fair selection rounds",
		Long: "fairdraw commits to a population of entries before randomness is known, " +
			"draws a single random seed, deterministically selects winners and can prove " +
			"any winner's membership in the committed population.",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "loglevel", "info",
		"log level (trace, debug, info, warn, error)")

	viper.SetEnvPrefix("FAIRDRAW")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() zerolog.Logger {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		log.Warn().Str("loglevel", flagLogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	return log.Level(level)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
