package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage your favorite pokemon",
	}

	cmd.AddCommand(newFavoritesListCmd())
	cmd.AddCommand(newFavoritesAddCmd())
	cmd.AddCommand(newFavoritesRemoveCmd())

	return cmd
}

func favoritesPath(userID string) string {
	return "/api/v1/players/" + url.PathEscape(userID) + "/favorites"
}

func newFavoritesListCmd() *cobra.Command {
	var enrich bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List favorites",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := currentUser()
			if err != nil {
				return err
			}

			path := favoritesPath(me.ID)
			if enrich {
				path += "?enrich=true"
			}
			var result Favorites
			if err := client.Get(path, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&enrich, "enrich", false, "Refresh stats from the pokedex")

	return cmd
}

func newFavoritesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <id-or-name>",
		Short: "Look up a pokemon and add it to favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := currentUser()
			if err != nil {
				return err
			}
			creature, err := lookupCreature(args[0])
			if err != nil {
				return err
			}

			var result Favorites
			if err := client.Post(favoritesPath(me.ID), map[string]any{"pokemon": creature}, &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newFavoritesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a pokemon from favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid pokemon id %q", args[0])
			}
			me, err := currentUser()
			if err != nil {
				return err
			}

			var result Favorites
			if err := client.Delete(fmt.Sprintf("%s/%d", favoritesPath(me.ID), id), &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
