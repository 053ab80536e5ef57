package game

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages game registration and lookup by type.
type Registry struct {
	games map[GameType]Game
	mu    sync.RWMutex
}

// NewRegistry creates a new game registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[GameType]Game),
	}
}

// NewBuiltinRegistry registers the stock catalog, replacing odds with any
// entries from overrides. Every resulting game is validated.
func NewBuiltinRegistry(overrides map[GameType]Odds) (*Registry, error) {
	r := NewRegistry()
	for _, g := range Builtin() {
		if o, ok := overrides[g.Type]; ok {
			g.Odds = o
		}
		if err := r.Register(g); err != nil {
			return nil, err
		}
	}
	for t := range overrides {
		if _, ok := r.Get(t); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidGameType, t)
		}
	}
	return r, nil
}

// Register adds a game to the registry.
// If a game with the same type already exists, it will be replaced.
func (r *Registry) Register(g Game) error {
	if g.Type == "" {
		return fmt.Errorf("game type cannot be empty")
	}
	if err := g.Odds.Validate(); err != nil {
		return fmt.Errorf("game %s: %w", g.Type, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.Type] = g
	return nil
}

// Get retrieves a game by its type.
func (r *Registry) Get(t GameType) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[t]
	return g, ok
}

// List returns all registered games sorted by type.
func (r *Registry) List() []Game {
	r.mu.RLock()
	defer r.mu.RUnlock()

	games := make([]Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Type < games[j].Type })
	return games
}

// Count returns the number of registered games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
