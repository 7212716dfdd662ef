package model

// CreatureID is the provider's numeric creature identifier
type CreatureID int

// Stats are the four base stats used for battle scoring
type Stats struct {
	HP      int `json:"hp"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
}

// Creature is a creature as returned by the data provider or saved as a favorite
type Creature struct {
	ID        CreatureID `json:"id"`
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Stats     *Stats     `json:"stats,omitempty"`
	Types     []string   `json:"types,omitempty"`
	Abilities []string   `json:"abilities,omitempty"`
}

// Ref returns the id+name snapshot kept in battle history
func (c Creature) Ref() CreatureRef {
	return CreatureRef{ID: c.ID, Name: c.Name}
}

// Clone returns a deep copy of the creature
func (c Creature) Clone() Creature {
	out := c
	if c.Stats != nil {
		s := *c.Stats
		out.Stats = &s
	}
	if c.Types != nil {
		out.Types = append([]string(nil), c.Types...)
	}
	if c.Abilities != nil {
		out.Abilities = append([]string(nil), c.Abilities...)
	}
	return out
}

// CreatureRef is the snapshot of a creature stored with a battle record
type CreatureRef struct {
	ID   CreatureID `json:"id"`
	Name string     `json:"name"`
}
