package pokedex

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pokearena/internal/dependencies/mocks"
	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/testutil"
)

// fakeProvider serves a small in-memory pokedex over HTTP
type fakeProvider struct {
	mu       sync.Mutex
	server   *httptest.Server
	pokemon  map[string]int // name -> id
	groups   map[string][]int
	failIDs  map[int]bool
	requests []string
}

func newFakeProvider() *fakeProvider {
	f := &fakeProvider{
		pokemon: map[string]int{"bulbasaur": 1, "charmander": 4, "squirtle": 7, "pikachu": 25, "vulpix": 37},
		groups: map[string][]int{
			"/type/fire":        {4, 37},
			"/ability/overgrow": {1},
		},
		failIDs: map[int]bool{},
	}
	for _, id := range PopularIDs {
		if f.nameOf(id) == "" {
			f.pokemon[fmt.Sprintf("poke%d", id)] = id
		}
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeProvider) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.URL.Path)
	f.mu.Unlock()

	if members, ok := f.groups[r.URL.Path]; ok {
		body := map[string]any{}
		list := []map[string]any{}
		for _, id := range members {
			list = append(list, map[string]any{
				"pokemon": map[string]string{
					"name": f.nameOf(id),
					"url":  fmt.Sprintf("%s/pokemon/%d", f.server.URL, id),
				},
			})
		}
		body["pokemon"] = list
		_ = json.NewEncoder(w).Encode(body)
		return
	}

	key, ok := strings.CutPrefix(r.URL.Path, "/pokemon/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, found := f.pokemon[key]
	if !found {
		_, err := fmt.Sscanf(key, "%d", &id)
		found = err == nil && f.nameOf(id) != ""
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	if f.failIDs[id] {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	_ = json.NewEncoder(w).Encode(pokemonJSON(id, f.nameOf(id)))
}

func (f *fakeProvider) nameOf(id int) string {
	for name, pid := range f.pokemon {
		if pid == id {
			return name
		}
	}
	return ""
}

func pokemonJSON(id int, name string) map[string]any {
	return map[string]any{
		"id":   id,
		"name": name,
		"sprites": map[string]any{
			"front_default": fmt.Sprintf("https://sprites.example/%d.png", id),
			"other": map[string]any{
				"official-artwork": map[string]any{
					"front_default": fmt.Sprintf("https://artwork.example/%d.png", id),
				},
			},
		},
		"stats": []map[string]any{
			{"base_stat": id + 1, "stat": map[string]string{"name": "hp"}},
			{"base_stat": id + 2, "stat": map[string]string{"name": "attack"}},
			{"base_stat": id + 3, "stat": map[string]string{"name": "defense"}},
			{"base_stat": 99, "stat": map[string]string{"name": "special-attack"}},
			{"base_stat": id + 4, "stat": map[string]string{"name": "speed"}},
		},
		"types":     []map[string]any{{"type": map[string]string{"name": "normal"}}},
		"abilities": []map[string]any{{"ability": map[string]string{"name": "run-away"}}},
	}
}

type ClientSuite struct {
	suite.Suite
	provider *fakeProvider
	random   *mocks.MockRandom
	client   *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.provider = newFakeProvider()
	s.random = mocks.NewMockRandom()
	cfg := DefaultConfig()
	cfg.BaseURL = s.provider.server.URL + "/"
	cfg.Timeout = 2 * time.Second
	s.client = New(cfg, s.random, testutil.NopLogger())
}

func (s *ClientSuite) TearDownTest() {
	s.provider.server.Close()
}

func (s *ClientSuite) TestGetByID() {
	c, err := s.client.Get(s.T().Context(), "25")
	s.Require().NoError(err)

	s.Equal(model.CreatureID(25), c.ID)
	s.Equal("pikachu", c.Name)
	s.Equal("https://sprites.example/25.png", c.Image)
	s.Equal(&model.Stats{HP: 26, Attack: 27, Defense: 28, Speed: 29}, c.Stats)
	s.Equal([]string{"normal"}, c.Types)
	s.Equal([]string{"run-away"}, c.Abilities)
}

func (s *ClientSuite) TestGetByNameIsCaseInsensitive() {
	c, err := s.client.Get(s.T().Context(), "  Pikachu ")
	s.Require().NoError(err)
	s.Equal(model.CreatureID(25), c.ID)
}

func (s *ClientSuite) TestGetUnknownIsNotFound() {
	_, err := s.client.Get(s.T().Context(), "missingno")
	s.ErrorIs(err, model.ErrCreatureNotFound)
}

func (s *ClientSuite) TestGetUpstreamFailureIsNotFound() {
	s.provider.failIDs[25] = true

	_, err := s.client.Get(s.T().Context(), "25")
	s.ErrorIs(err, model.ErrCreatureNotFound)
}

func (s *ClientSuite) TestGetUnreachableIsNotFound() {
	s.provider.server.Close()

	_, err := s.client.Get(s.T().Context(), "25")
	s.ErrorIs(err, model.ErrCreatureNotFound)
}

func (s *ClientSuite) TestRandomUsesOneBasedID() {
	s.random.QueueIntn(24)

	c, err := s.client.Random(s.T().Context())
	s.Require().NoError(err)
	s.Equal(model.CreatureID(25), c.ID)
}

func (s *ClientSuite) TestSearchDirectMatch() {
	results, err := s.client.Search(s.T().Context(), "Squirtle")
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("squirtle", results[0].Name)
}

func (s *ClientSuite) TestSearchFallsBackToType() {
	results, err := s.client.Search(s.T().Context(), "fire")
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("charmander", results[0].Name)
	s.Equal("vulpix", results[1].Name)
}

func (s *ClientSuite) TestSearchFallsBackToAbility() {
	results, err := s.client.Search(s.T().Context(), "overgrow")
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("bulbasaur", results[0].Name)
	s.Contains(s.provider.requests, "/type/overgrow")
}

func (s *ClientSuite) TestSearchLimitsGroupResults() {
	members := make([]int, 0, len(PopularIDs))
	members = append(members, PopularIDs...)
	s.provider.groups["/type/legend"] = members

	cfg := DefaultConfig()
	cfg.BaseURL = s.provider.server.URL
	cfg.SearchLimit = 3
	client := New(cfg, s.random, testutil.NopLogger())

	results, err := client.Search(s.T().Context(), "legend")
	s.Require().NoError(err)
	s.Len(results, 3)
	s.Equal(model.CreatureID(PopularIDs[0]), results[0].ID)
}

func (s *ClientSuite) TestSearchNoMatch() {
	results, err := s.client.Search(s.T().Context(), "nothing")
	s.Require().NoError(err)
	s.NotNil(results)
	s.Empty(results)
}

func (s *ClientSuite) TestSearchEmptyQuery() {
	_, err := s.client.Search(s.T().Context(), "  ")
	s.ErrorIs(err, model.ErrValidation)
}

func (s *ClientSuite) TestPopular() {
	results, err := s.client.Popular(s.T().Context())
	s.Require().NoError(err)
	s.Require().Len(results, len(PopularIDs))

	for i, id := range PopularIDs {
		s.Equal(model.CreatureID(id), results[i].ID)
		s.Equal(fmt.Sprintf("https://artwork.example/%d.png", id), results[i].Image)
	}
}

func (s *ClientSuite) TestPopularFailureIsUpstreamError() {
	s.provider.failIDs[150] = true

	_, err := s.client.Popular(s.T().Context())
	s.ErrorIs(err, model.ErrUpstream)
}
