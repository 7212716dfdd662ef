// Package pokedex is a client for the external creature-data provider.
package pokedex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/pokearena/internal/dependencies/random"
	"github.com/mcoot/pokearena/internal/model"
)

// PopularIDs is the fixed showcase list
var PopularIDs = []int{1, 6, 7, 9, 12, 25, 59, 94, 132, 133, 134, 143, 149, 150, 151, 493}

// Config holds provider client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RandomMaxID is the highest ID Random may pick
	RandomMaxID int
	// SearchLimit caps how many members of a type or ability are returned
	SearchLimit int
}

// DefaultConfig returns settings for the public PokeAPI
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://pokeapi.co/api/v2",
		Timeout:     10 * time.Second,
		RandomMaxID: 150,
		SearchLimit: 20,
	}
}

// errNotFound marks a 404 from the provider
var errNotFound = errors.New("provider returned 404")

// Client fetches creatures from the provider
type Client struct {
	http    *http.Client
	baseURL string
	random  random.Random
	cfg     Config
	logger  *slog.Logger
}

// New creates a provider Client
func New(cfg Config, random random.Random, logger *slog.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RandomMaxID <= 0 {
		cfg.RandomMaxID = defaults.RandomMaxID
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaults.SearchLimit
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		random:  random,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "pokedex")),
	}
}

// Get looks up one creature by numeric ID or name. Any provider failure is
// reported as model.ErrCreatureNotFound.
func (c *Client) Get(ctx context.Context, idOrName string) (*model.Creature, error) {
	p, err := c.fetchPokemon(ctx, c.baseURL+"/pokemon/"+url.PathEscape(normalize(idOrName)))
	if err != nil {
		c.logger.Warn("creature lookup failed",
			slog.String("query", idOrName),
			slog.Any("error", err))
		return nil, model.ErrCreatureNotFound
	}
	return p.toCreature(), nil
}

// Random returns a creature with an ID drawn uniformly from 1..RandomMaxID
func (c *Client) Random(ctx context.Context) (*model.Creature, error) {
	id := c.random.Intn(c.cfg.RandomMaxID) + 1
	return c.Get(ctx, strconv.Itoa(id))
}

// Search tries a direct name or ID match, then a type, then an ability.
// An empty result means nothing matched.
func (c *Client) Search(ctx context.Context, query string) ([]model.Creature, error) {
	q := normalize(query)
	if q == "" {
		return nil, model.NewValidationError("q", "Missing search query")
	}

	if p, err := c.fetchPokemon(ctx, c.baseURL+"/pokemon/"+url.PathEscape(q)); err == nil {
		return []model.Creature{*p.toCreature()}, nil
	}

	for _, group := range []string{"type", "ability"} {
		creatures, err := c.searchGroup(ctx, group, q)
		if err != nil {
			c.logger.Debug("search group failed",
				slog.String("group", group),
				slog.String("query", q),
				slog.Any("error", err))
			continue
		}
		return creatures, nil
	}
	return []model.Creature{}, nil
}

// Popular returns the showcase creatures with official artwork images
func (c *Client) Popular(ctx context.Context) ([]model.Creature, error) {
	out := make([]model.Creature, len(PopularIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range PopularIDs {
		g.Go(func() error {
			p, err := c.fetchPokemon(gctx, fmt.Sprintf("%s/pokemon/%d", c.baseURL, id))
			if err != nil {
				return err
			}
			creature := p.toCreature()
			creature.Image = p.Sprites.Other.OfficialArtwork.FrontDefault
			out[i] = *creature
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("failed to fetch popular creatures", slog.Any("error", err))
		return nil, fmt.Errorf("popular creatures: %w: %w", model.ErrUpstream, err)
	}
	return out, nil
}

func (c *Client) searchGroup(ctx context.Context, group, q string) ([]model.Creature, error) {
	var resp groupResponse
	if err := c.getJSON(ctx, c.baseURL+"/"+group+"/"+url.PathEscape(q), &resp); err != nil {
		return nil, err
	}

	members := resp.Pokemon
	if len(members) > c.cfg.SearchLimit {
		members = members[:c.cfg.SearchLimit]
	}

	out := make([]model.Creature, len(members))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range members {
		g.Go(func() error {
			p, err := c.fetchPokemon(gctx, m.Pokemon.URL)
			if err != nil {
				return err
			}
			out[i] = *p.toCreature()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) fetchPokemon(ctx context.Context, rawURL string) (*pokemonResponse, error) {
	var p pokemonResponse
	if err := c.getJSON(ctx, rawURL, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
