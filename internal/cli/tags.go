package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
)

func newTagsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manipulate tags",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all tags with their bookmark counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := e.client(cmd)
			if err != nil {
				return err
			}
			tags, err := api.ListTags(cmd.Context())
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				e.out.Line("You don't currently have any tags.")
				return nil
			}
			domain.SortTagsByName(tags)
			for _, t := range tags {
				e.out.Line("%s\t%d", t.Name, t.NumBookmarks)
			}
			return nil
		},
	})
	return cmd
}
