package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout, errW: os.Stderr}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case OnlineUsers:
		o.printOnlineUsers(v)
	case Favorites:
		o.printCreatures(v.Favorites, false)
	case Creature:
		o.printCreature(v)
	case Creatures:
		o.printCreatures(v.Creatures, true)
	case BattleResult:
		o.printBattleResult(v)
	case Remaining:
		fmt.Fprintf(o.w, "Battles left today: %d of %d (resets %s)\n", v.Remaining, v.DailyLimit, v.ResetsAt.Local().Format(time.Kitchen))
	case History:
		o.printHistory(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Score response type
type Score struct {
	Bot   int `json:"bot"`
	Human int `json:"human"`
	Total int `json:"total"`
}

// User response type (matches API)
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
	Score     Score  `json:"score"`
	Battles   int    `json:"battles"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// OnlineUser response type
type OnlineUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// OnlineUsers response type
type OnlineUsers struct {
	Users []OnlineUser `json:"users"`
}

// Stats response type
type Stats struct {
	HP      int `json:"hp"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
}

// Creature response type
type Creature struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Image      string   `json:"image,omitempty"`
	Stats      *Stats   `json:"stats,omitempty"`
	Types      []string `json:"types,omitempty"`
	Abilities  []string `json:"abilities,omitempty"`
	IsFavorite bool     `json:"isFavorite,omitempty"`
}

// Creatures response type
type Creatures struct {
	Creatures []Creature `json:"pokemon"`
}

// Favorites response type
type Favorites struct {
	Favorites []Creature `json:"favorites"`
}

// BattleResult response type
type BattleResult struct {
	Result        string  `json:"result"`
	PlayerScore   float64 `json:"playerScore"`
	OpponentScore float64 `json:"opponentScore"`
	Remaining     int     `json:"remaining"`
}

// Remaining response type
type Remaining struct {
	Remaining  int       `json:"remaining"`
	DailyLimit int       `json:"dailyLimit"`
	ResetsAt   time.Time `json:"resetsAt"`
}

// CreatureRef response type
type CreatureRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// BattleRecord response type
type BattleRecord struct {
	Date            string      `json:"date"`
	Opponent        string      `json:"opponent"`
	PlayerPokemon   CreatureRef `json:"playerPokemon"`
	OpponentPokemon CreatureRef `json:"opponentPokemon"`
	Result          string      `json:"result"`
}

// History response type
type History struct {
	History []BattleRecord `json:"history"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Battles     int    `json:"battles"`
	SuccessRate string `json:"successRate"`
}

// Leaderboard response type
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"leaderboard"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

func (o *Output) printUser(u User) {
	fmt.Fprintf(o.w, "User: %s (%s)\n", u.FirstName, u.ID)
	fmt.Fprintf(o.w, "Email: %s\n", u.Email)
	fmt.Fprintf(o.w, "Score: %d (bot %d, human %d)\n", u.Score.Total, u.Score.Bot, u.Score.Human)
	fmt.Fprintf(o.w, "Battles: %d\n", u.Battles)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printOnlineUsers(u OnlineUsers) {
	if len(u.Users) == 0 {
		fmt.Fprintln(o.w, "Nobody else is online")
		return
	}
	fmt.Fprintf(o.w, "Online (%d):\n", len(u.Users))
	for _, user := range u.Users {
		fmt.Fprintf(o.w, "  - %s (%s)\n", user.DisplayName, user.ID)
	}
}

func (o *Output) printCreature(c Creature) {
	fav := ""
	if c.IsFavorite {
		fav = " *"
	}
	fmt.Fprintf(o.w, "#%d %s%s\n", c.ID, c.Name, fav)
	if c.Stats != nil {
		fmt.Fprintf(o.w, "HP %d  ATK %d  DEF %d  SPD %d\n", c.Stats.HP, c.Stats.Attack, c.Stats.Defense, c.Stats.Speed)
	}
	if len(c.Types) > 0 {
		fmt.Fprintf(o.w, "Types: %s\n", strings.Join(c.Types, ", "))
	}
	if len(c.Abilities) > 0 {
		fmt.Fprintf(o.w, "Abilities: %s\n", strings.Join(c.Abilities, ", "))
	}
}

func (o *Output) printCreatures(cs []Creature, flagFavorites bool) {
	if len(cs) == 0 {
		fmt.Fprintln(o.w, "No pokemon")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	header := "ID\tNAME\tHP\tATK\tDEF\tSPD"
	if flagFavorites {
		header += "\tFAV"
	}
	fmt.Fprintln(tw, header)
	for _, c := range cs {
		var s Stats
		if c.Stats != nil {
			s = *c.Stats
		}
		line := fmt.Sprintf("%d\t%s\t%d\t%d\t%d\t%d", c.ID, c.Name, s.HP, s.Attack, s.Defense, s.Speed)
		if flagFavorites && c.IsFavorite {
			line += "\t*"
		} else if flagFavorites {
			line += "\t"
		}
		fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()
}

func (o *Output) printBattleResult(b BattleResult) {
	fmt.Fprintf(o.w, "Result: %s\n", strings.ToUpper(b.Result))
	fmt.Fprintf(o.w, "Scores: %.2f vs %.2f\n", b.PlayerScore, b.OpponentScore)
	fmt.Fprintf(o.w, "Battles left today: %d\n", b.Remaining)
}

func (o *Output) printHistory(h History) {
	if len(h.History) == 0 {
		fmt.Fprintln(o.w, "No battles yet")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tOPPONENT\tYOURS\tTHEIRS\tRESULT")
	for _, r := range h.History {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Date, r.Opponent, r.PlayerPokemon.Name, r.OpponentPokemon.Name, r.Result)
	}
	_ = tw.Flush()
}

func (o *Output) printLeaderboard(l Leaderboard) {
	if len(l.Entries) == 0 {
		fmt.Fprintln(o.w, "No players yet")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tSCORE\tBATTLES\tSUCCESS")
	for i, e := range l.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s%%\n", i+1, e.Name, e.Score, e.Battles, e.SuccessRate)
	}
	_ = tw.Flush()
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	}
}
