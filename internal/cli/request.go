package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/deck/pipeline"
	"github.com/deckforge/server/internal/document"
)

// addRequestFlags registers the flags shared by generate and outline.
func addRequestFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("topic", "t", "", "Deck topic")
	f.StringP("document", "d", "", "Text, markdown or HTML file to use as source material")
	f.IntP("slides", "n", 0, "Number of slides (0 uses PIPELINE_DEFAULT_SLIDES)")
	f.String("tone", "", "Tone of voice")
	f.String("audience", "", "Target audience")
	f.String("language", "", "Output language")
	f.String("theme", "", "Theme name, see \"deckforge themes\"")
}

func requestFromFlags(cmd *cobra.Command) (model.GenerateRequest, error) {
	f := cmd.Flags()
	var req model.GenerateRequest
	req.Topic, _ = f.GetString("topic")
	req.SlideCount, _ = f.GetInt("slides")
	req.Tone, _ = f.GetString("tone")
	req.Audience, _ = f.GetString("audience")
	req.Language, _ = f.GetString("language")
	req.Theme, _ = f.GetString("theme")

	if path, _ := f.GetString("document"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("read document: %w", err)
		}
		doc, err := document.Extract(path, "", data)
		if err != nil {
			return req, err
		}
		req.Document = doc.Text
		if req.Topic == "" {
			req.Topic = doc.Title
		}
	}
	return req, nil
}

// newRunner builds the pipeline for a one-shot command. The returned context
// is cancelled on interrupt.
func newRunner(cmd *cobra.Command) (context.Context, context.CancelFunc, pipeline.Runner, error) {
	cfg, err := setup()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	runner, err := pipeline.BuildPipeline(ctx, pipeline.Config{LLM: cfg.LLM, Pipeline: cfg.Pipeline})
	if err != nil {
		stop()
		return nil, nil, nil, err
	}
	return ctx, stop, runner, nil
}
