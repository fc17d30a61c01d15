package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deckforge/server/internal/deck/pipeline"
	"github.com/deckforge/server/internal/httpapi"
	logx "github.com/deckforge/server/pkg/logger"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API. Decks are kept in Redis when REDIS_URL is set,
otherwise in memory, and expire after DECK_TTL.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "Listen address, overrides HTTP_ADDR")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := pipeline.BuildPipeline(ctx, pipeline.Config{LLM: cfg.LLM, Pipeline: cfg.Pipeline})
	if err != nil {
		return err
	}

	store, err := newDeckStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := httpapi.NewServer(cfg.HTTP, runner, store)
	defer srv.Close()

	logx.Info().
		Str("environment", cfg.env().String()).
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Msg("deckforge starting")
	return srv.ListenAndServe(ctx)
}
