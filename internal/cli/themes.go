package cli

import (
	"github.com/spf13/cobra"

	"github.com/deckforge/server/internal/themes"
)

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the built-in themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range themes.List() {
				marker := " "
				if t.Name == themes.DefaultTheme {
					marker = "*"
				}
				cmd.Printf("%s %-10s %-22s %s\n", marker, t.Name, t.Label, t.Primary)
			}
			return nil
		},
	}
}
