package cli

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"
)

func newBattleCmd() *cobra.Command {
	var vs, human string

	cmd := &cobra.Command{
		Use:   "battle <your-pokemon>",
		Short: "Fight a battle",
		Long: `Fight one battle with the given pokemon.

Without --vs or --human the opponent is a random bot pokemon. --human takes
an online player's name or ID and fights one of their favorites.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if vs != "" && human != "" {
				return errors.New("--vs and --human cannot be combined")
			}

			mine, err := lookupCreature(args[0])
			if err != nil {
				return err
			}

			var theirs Creature
			opponent := "bot"
			switch {
			case human != "":
				opponent = "human"
				theirs, err = pickHumanCreature(human)
			case vs != "":
				theirs, err = lookupCreature(vs)
			default:
				err = client.Get("/api/v1/creatures/random", &theirs)
			}
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			if cfg.Verbose && cfg.Output != "json" {
				out.PrintMessage(mine.Name + " vs " + theirs.Name)
			}

			var result BattleResult
			err = client.Post("/api/v1/battles", map[string]any{
				"playerPokemon":   mine,
				"opponentPokemon": theirs,
				"opponent":        opponent,
			}, &result)
			if err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&vs, "vs", "", "Opponent pokemon (default: random bot)")
	cmd.Flags().StringVar(&human, "human", "", "Fight a favorite of this online player (name or ID)")

	return cmd
}

// pickHumanCreature finds an online player and draws one of their favorites
func pickHumanCreature(player string) (Creature, error) {
	var online OnlineUsers
	if err := client.Get("/api/v1/players/online", &online); err != nil {
		return Creature{}, err
	}

	var opponent *OnlineUser
	for i, u := range online.Users {
		if u.ID == player || strings.EqualFold(u.DisplayName, player) {
			opponent = &online.Users[i]
			break
		}
	}
	if opponent == nil {
		return Creature{}, fmt.Errorf("%s is not online", player)
	}

	var favs Favorites
	if err := client.Get(favoritesPath(opponent.ID)+"?enrich=true", &favs); err != nil {
		return Creature{}, err
	}
	if len(favs.Favorites) == 0 {
		return Creature{}, fmt.Errorf("%s has no favorites to battle with", opponent.DisplayName)
	}
	return favs.Favorites[rand.IntN(len(favs.Favorites))], nil
}

func newRemainingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remaining",
		Short: "Show how many battles are left today",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Remaining
			if err := client.Get("/api/v1/battles/remaining", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show your battle history",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result History
			if err := client.Get("/api/v1/history", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Leaderboard
			if err := client.Get("/api/v1/leaderboard", &result); err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
