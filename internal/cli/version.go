package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hoarder/internal/version"
)

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			e.out.Line("%s", version.String("hoarder"))
		},
	}
}
