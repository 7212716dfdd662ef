package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newCreatureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pokemon",
		Aliases: []string{"creature"},
		Short:   "Look up pokemon",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id-or-name>",
		Short: "Show one pokemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookupCreature(args[0])
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(c)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "random",
		Short: "Draw a random pokemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			var c Creature
			if err := client.Get("/api/v1/creatures/random", &c); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(c)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "popular",
		Short: "List the popular pokemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Creatures
			if err := client.Get("/api/v1/creatures/popular", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "search <query>",
		Short: "Search by name, id, type or ability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Creatures
			if err := client.Get("/api/v1/creatures/search?q="+url.QueryEscape(args[0]), &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	})

	return cmd
}

func lookupCreature(idOrName string) (Creature, error) {
	var c Creature
	err := client.Get("/api/v1/creatures/"+url.PathEscape(idOrName), &c)
	return c, err
}
