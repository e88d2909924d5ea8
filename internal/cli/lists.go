package cli

import (
	"github.com/spf13/cobra"
)

func newListsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manipulate lists",
	}

	var icon string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := e.client(cmd)
			if err != nil {
				return err
			}
			l, err := api.CreateList(cmd.Context(), args[0], icon)
			if err != nil {
				return err
			}
			return e.out.JSON(l)
		},
	}
	create.Flags().StringVar(&icon, "icon", "🚀", "icon shown next to the list name")

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "Show all lists",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				api, err := e.client(cmd)
				if err != nil {
					return err
				}
				lists, err := api.ListLists(cmd.Context())
				if err != nil {
					return err
				}
				return e.out.JSON(lists)
			},
		},
		create,
		&cobra.Command{
			Use:   "add <listId> <bookmarkId>",
			Short: "Add a bookmark to a list",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				api, err := e.client(cmd)
				if err != nil {
					return err
				}
				if err := api.AddToList(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				e.out.Success("Bookmark %s added to list %s", args[1], args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:     "remove <listId> <bookmarkId>",
			Aliases: []string{"rm"},
			Short:   "Remove a bookmark from a list",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				api, err := e.client(cmd)
				if err != nil {
					return err
				}
				if err := api.RemoveFromList(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				e.out.Success("Bookmark %s removed from list %s", args[1], args[0])
				return nil
			},
		},
	)
	return cmd
}
