package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/deckforge/server/internal/deck/model"
	"github.com/deckforge/server/internal/export"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a deck and write it to a file",
		Long: `Generate a deck and write it to a file.

Examples:
  deckforge generate -t "Solar power in 2030" -n 8
  deckforge generate -d notes.md --format pdf -o notes.pdf`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}
	addRequestFlags(cmd)
	cmd.Flags().StringP("format", "f", export.FormatPPTX, "Export format: json, pdf or pptx")
	cmd.Flags().StringP("output", "o", "", "Output file (default: derived from the deck title)")
	cmd.Flags().Bool("no-visuals", false, "Skip image prompt generation")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	req.SkipVisuals, _ = cmd.Flags().GetBool("no-visuals")

	format, _ := cmd.Flags().GetString("format")
	exporter, err := export.Get(format)
	if err != nil {
		return err
	}

	ctx, stop, runner, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer stop()

	deck, err := runner.Generate(ctx, req)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	path, err := writeExport(deck, exporter, output)
	if err != nil {
		return err
	}

	cmd.Printf("Wrote %d slides to %s\n", len(deck.Slides), path)
	if len(deck.Meta.Fallbacks) > 0 {
		cmd.Printf("Fallbacks used: %v\n", deck.Meta.Fallbacks)
	}
	cmd.Printf("Tokens: %d, cost: $%.4f, took %dms\n", deck.Meta.Usage.TotalTokens, deck.Meta.CostUSD, deck.Meta.DurationMS)
	return nil
}

// writeExport renders deck and writes it to output, or to a file named after
// the deck in the working directory.
func writeExport(deck *model.Deck, exporter export.Exporter, output string) (string, error) {
	data, err := exporter.Export(deck)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", exporter.Format(), err)
	}
	if output == "" {
		output = export.Filename(deck, exporter)
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", output, err)
	}
	return output, nil
}
