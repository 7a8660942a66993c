package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalkafox/ionia-img/internal/config"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "ionia",
		Short:         "Anonymous upload host: store a payload behind an API key, fetch it by short id",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Version = version
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log store initialization for admin commands")

	cmd.AddCommand(
		newServeCmd(),
		newKeyCmd(&verbose),
		newPrefixCmd(&verbose),
	)
	return cmd
}

func loadConfig() (*config.Config, error) {
	return config.LoadFromEnv()
}

func baseLogger() *log.Logger {
	return log.New(os.Stdout, "[app] ", log.LstdFlags)
}

// adminLogger: админские команды печатают результат в stdout, логи только по -v
func adminLogger(verbose bool) *log.Logger {
	if verbose {
		return log.New(os.Stderr, "[admin] ", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}
