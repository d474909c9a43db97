// Command quill is the terminal editor for a quill blog.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/quill/internal/autosave"
	"github.com/debemdeboas/quill/internal/client"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/logger"
)

var Version = "dev"

// app is the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string

	cfg   *config.Config
	log   zerolog.Logger
	in    *bufio.Reader
	local autosave.LocalStore
}

func main() {
	a := &app{in: bufio.NewReader(os.Stdin)}

	rootCmd := &cobra.Command{
		Use:               "quill",
		Short:             "Write and manage blog drafts from the terminal",
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultConfigPath, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(editCmd(a))
	rootCmd.AddCommand(draftsCmd(a))
	rootCmd.AddCommand(localCmd(a))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	bootLog := logger.New("warn")
	config.SetLogger(bootLog)
	if err := config.LoadConfig(a.configPath); err != nil {
		return err
	}
	a.cfg = config.AppConfig

	level := a.cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.log = logger.Component(logger.New(level), "quill")
	client.SetLogger(a.log)

	local, err := autosave.NewLocalStore(a.cfg.Client.LocalDraftPath)
	if err != nil {
		a.log.Warn().Err(err).Msg("Using an in-memory local draft")
	}
	a.local = local
	return nil
}

func (a *app) client() (*client.Client, error) {
	return client.NewFromConfig(a.cfg.Client)
}
