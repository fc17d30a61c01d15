package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newOutlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Plan a deck and print its outline as JSON",
		Args:  cobra.NoArgs,
		RunE:  runOutline,
	}
	addRequestFlags(cmd)
	return cmd
}

func runOutline(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, stop, runner, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer stop()

	outline, err := runner.Outline(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outline)
}
