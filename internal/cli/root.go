// Package cli provides the deckforge commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	logx "github.com/deckforge/server/pkg/logger"
)

// Version information, set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var envFile string

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deckforge",
		Short: "Generate slide decks with a language model",
		Long: `deckforge turns a topic or a document into a slide deck. It plans an
outline, writes every slide, designs image prompts and exports the
result as PPTX, PDF or JSON.

Run "deckforge serve" for the HTTP API or "deckforge generate" to build
a single deck from the command line.`,
		SilenceUsage: true,
		Version:      fmt.Sprintf("%s (commit: %s)", Version, Commit),
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file to load before reading the environment")

	root.AddCommand(newServeCmd(), newGenerateCmd(), newOutlineCmd(), newThemesCmd())
	return root
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and initialises the logger every command shares.
func setup() (*AppConfig, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return nil, err
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.env()})
	return cfg, nil
}
