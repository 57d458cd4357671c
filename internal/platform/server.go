package platform

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

// Sentinel errors for the roster.
var (
	// ErrAlreadyOnline is returned when connecting a player twice.
	ErrAlreadyOnline = errors.New("player is already online")

	// ErrNotOnline is returned when disconnecting an absent player.
	ErrNotOnline = errors.New("player is not online")
)

// Server is an in-memory roster of players and worlds. It also answers
// player and world completions for the command router.
type Server struct {
	mu      sync.RWMutex
	players map[string]*Player // folded name -> player
	known   map[string]*Player
	worlds  map[string]*World
	order   []string // world names in insertion order
}

// NewServer creates an empty roster.
func NewServer() *Server {
	return &Server{
		players: make(map[string]*Player),
		known:   make(map[string]*Player),
		worlds:  make(map[string]*World),
	}
}

func fold(name string) string { return strings.ToLower(name) }

// Connect marks p online and adds it to the roster.
func (s *Server) Connect(p *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fold(p.Name())
	if _, ok := s.players[key]; ok {
		return ErrAlreadyOnline
	}
	if p.Position().World == "" && len(s.order) > 0 {
		p.SetPosition(s.worlds[s.order[0]].Spawn())
	}
	s.players[key] = p
	s.known[key] = p
	p.setOnline(true)
	return nil
}

// Disconnect marks the named player offline and removes it from the
// online roster. The player stays known.
func (s *Server) Disconnect(name string) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fold(name)
	p, ok := s.players[key]
	if !ok {
		return nil, ErrNotOnline
	}
	delete(s.players, key)
	p.setOnline(false)
	return p, nil
}

// Player looks up an online player by name, case-insensitively.
func (s *Server) Player(name string) (*Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[fold(name)]
	return p, ok
}

// KnownPlayer looks up any player that has ever connected.
func (s *Server) KnownPlayer(name string) (*Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.known[fold(name)]
	return p, ok
}

// Online returns the online players sorted by name.
func (s *Server) Online() []*Player {
	s.mu.RLock()
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Player) int {
		return strings.Compare(fold(a.Name()), fold(b.Name()))
	})
	return out
}

// Broadcast sends msg to every online player.
func (s *Server) Broadcast(msg string) {
	for _, p := range s.Online() {
		p.SendMessage(msg)
	}
}

// AddWorld registers w. The first world added is the default spawn world.
func (s *Server) AddWorld(w *World) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.worlds[w.Name()]; !ok {
		s.order = append(s.order, w.Name())
	}
	s.worlds[w.Name()] = w
}

// World looks up a world by name.
func (s *Server) World(name string) (*World, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.worlds[name]
	return w, ok
}

// Worlds returns the worlds in insertion order.
func (s *Server) Worlds() []*World {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*World, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.worlds[n])
	}
	return out
}

// PlayersIn returns online players currently in the named world.
func (s *Server) PlayersIn(world string) []*Player {
	var out []*Player
	for _, p := range s.Online() {
		if p.Position().World == world {
			out = append(out, p)
		}
	}
	return out
}

// PlayerNames returns player names for completion. With onlineOnly false
// every known player is included.
func (s *Server) PlayerNames(onlineOnly bool) []string {
	s.mu.RLock()
	src := s.known
	if onlineOnly {
		src = s.players
	}
	names := make([]string, 0, len(src))
	for _, p := range src {
		names = append(names, p.Name())
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names
}

// WorldNames returns world names for completion.
func (s *Server) WorldNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}
