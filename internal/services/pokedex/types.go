package pokedex

import "github.com/mcoot/pokearena/internal/model"

// Wire types for the subset of the provider's JSON we read

type namedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type pokemonResponse struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
	Stats []struct {
		BaseStat int           `json:"base_stat"`
		Stat     namedResource `json:"stat"`
	} `json:"stats"`
	Types []struct {
		Type namedResource `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability namedResource `json:"ability"`
	} `json:"abilities"`
}

// groupResponse covers both /type/{name} and /ability/{name}
type groupResponse struct {
	Pokemon []struct {
		Pokemon namedResource `json:"pokemon"`
	} `json:"pokemon"`
}

func (p *pokemonResponse) stat(name string) int {
	for _, s := range p.Stats {
		if s.Stat.Name == name {
			return s.BaseStat
		}
	}
	return 0
}

func (p *pokemonResponse) toCreature() *model.Creature {
	c := &model.Creature{
		ID:    model.CreatureID(p.ID),
		Name:  p.Name,
		Image: p.Sprites.FrontDefault,
		Stats: &model.Stats{
			HP:      p.stat("hp"),
			Attack:  p.stat("attack"),
			Defense: p.stat("defense"),
			Speed:   p.stat("speed"),
		},
		Types:     make([]string, 0, len(p.Types)),
		Abilities: make([]string, 0, len(p.Abilities)),
	}
	for _, t := range p.Types {
		c.Types = append(c.Types, t.Type.Name)
	}
	for _, a := range p.Abilities {
		c.Abilities = append(c.Abilities, a.Ability.Name)
	}
	return c
}
