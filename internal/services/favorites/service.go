package favorites

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/mcoot/pokearena/internal/model"
	"github.com/mcoot/pokearena/internal/storage"
)

// MaxFavorites is the most creatures a user may keep as favorites
const MaxFavorites = 10

// CreatureSource looks up current creature data
type CreatureSource interface {
	Get(ctx context.Context, idOrName string) (*model.Creature, error)
}

// Service manages each user's list of favorite creatures
type Service struct {
	storage  storage.Storage
	creature CreatureSource
	logger   *slog.Logger
}

// New creates a favorites Service
func New(storage storage.Storage, creatures CreatureSource, logger *slog.Logger) *Service {
	return &Service{
		storage:  storage,
		creature: creatures,
		logger:   logger.With(slog.String("component", "favorites")),
	}
}

// Add appends a creature to the user's favorites
func (s *Service) Add(ctx context.Context, userID model.UserID, creature model.Creature) ([]model.Creature, error) {
	if creature.ID <= 0 || creature.Name == "" {
		return nil, model.NewValidationError("pokemon", "id and name are required")
	}

	user, err := s.storage.UpdateUser(ctx, userID, func(u *model.User) error {
		if len(u.Favorites) >= MaxFavorites {
			return model.ErrFavoritesFull
		}
		if u.HasFavorite(creature.ID) {
			return model.ErrFavoriteExists
		}
		u.Favorites = append(u.Favorites, creature.Clone())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("favorite added",
		slog.String("user_id", string(userID)),
		slog.Int("creature_id", int(creature.ID)))
	return user.Favorites, nil
}

// Remove drops a creature from the user's favorites; absent IDs are a no-op
func (s *Service) Remove(ctx context.Context, userID model.UserID, creatureID model.CreatureID) ([]model.Creature, error) {
	user, err := s.storage.UpdateUser(ctx, userID, func(u *model.User) error {
		kept := make([]model.Creature, 0, len(u.Favorites))
		for _, f := range u.Favorites {
			if f.ID != creatureID {
				kept = append(kept, f)
			}
		}
		u.Favorites = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user.Favorites, nil
}

// List returns the favorites exactly as saved
func (s *Service) List(ctx context.Context, userID model.UserID) ([]model.Creature, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Favorites == nil {
		return []model.Creature{}, nil
	}
	return user.Favorites, nil
}

// ListEnriched returns the favorites with stats refreshed from the creature
// source. Favorites whose lookup fails are left out.
func (s *Service) ListEnriched(ctx context.Context, userID model.UserID) ([]model.Creature, error) {
	favorites, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	enriched := make([]*model.Creature, len(favorites))
	var wg sync.WaitGroup
	for i, fav := range favorites {
		wg.Add(1)
		go func() {
			defer wg.Done()
			current, err := s.creature.Get(ctx, strconv.Itoa(int(fav.ID)))
			if err != nil {
				s.logger.Warn("failed to refresh favorite",
					slog.Int("creature_id", int(fav.ID)),
					slog.Any("error", err))
				return
			}
			c := fav.Clone()
			c.Stats = current.Stats
			enriched[i] = &c
		}()
	}
	wg.Wait()

	out := make([]model.Creature, 0, len(enriched))
	for _, c := range enriched {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// Contains reports whether the creature is one of the user's favorites
func (s *Service) Contains(ctx context.Context, userID model.UserID, id model.CreatureID) (bool, error) {
	user, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.HasFavorite(id), nil
}

// IDs returns the set of favorite creature IDs, for flagging search results
func (s *Service) IDs(ctx context.Context, userID model.UserID) (map[model.CreatureID]bool, error) {
	favorites, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make(map[model.CreatureID]bool, len(favorites))
	for _, f := range favorites {
		ids[f.ID] = true
	}
	return ids, nil
}
