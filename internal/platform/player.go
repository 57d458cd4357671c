package platform

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// offlineNamespace derives stable player ids from names when no
// authentication service assigns them.
var offlineNamespace = uuid.MustParse("6f8c2f3e-6b1a-4c55-9a57-5f0c7f3b9d21")

// OfflineID returns the stable id for an unauthenticated player name.
// Names are compared case-insensitively.
func OfflineID(name string) uuid.UUID {
	return uuid.NewMD5(offlineNamespace, []byte("OfflinePlayer:"+strings.ToLower(name)))
}

// Player is a connected or remembered player. It satisfies the command
// router's Sender contract.
type Player struct {
	id   uuid.UUID
	name string

	mu          sync.RWMutex
	perms       map[string]bool
	online      bool
	kickReason  string
	position    Position
	orientation Orientation
	health      float64
	maxHealth   float64
	walkSpeed   float64
	experience  int
	inbox       []string
	deliver     func(msg string)
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithID overrides the name-derived id.
func WithID(id uuid.UUID) PlayerOption {
	return func(p *Player) {
		p.id = id
	}
}

// WithPermissions grants permission nodes.
func WithPermissions(nodes ...string) PlayerOption {
	return func(p *Player) {
		for _, n := range nodes {
			p.perms[n] = true
		}
	}
}

// WithPosition sets the starting position.
func WithPosition(pos Position) PlayerOption {
	return func(p *Player) {
		p.position = pos
	}
}

// WithMessageSink forwards every message to fn as well as the inbox.
func WithMessageSink(fn func(msg string)) PlayerOption {
	return func(p *Player) {
		p.deliver = fn
	}
}

// NewPlayer creates an offline player.
func NewPlayer(name string, opts ...PlayerOption) *Player {
	p := &Player{
		id:        OfflineID(name),
		name:      name,
		perms:     make(map[string]bool),
		health:    20,
		maxHealth: 20,
		walkSpeed: 0.2,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// UniqueID returns the player's id.
func (p *Player) UniqueID() uuid.UUID { return p.id }

// Name returns the player's name.
func (p *Player) Name() string { return p.name }

// SendMessage delivers a chat line to the player.
func (p *Player) SendMessage(msg string) {
	p.mu.Lock()
	p.inbox = append(p.inbox, msg)
	deliver := p.deliver
	p.mu.Unlock()
	if deliver != nil {
		deliver(msg)
	}
}

// Messages returns every message delivered so far.
func (p *Player) Messages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.inbox))
	copy(out, p.inbox)
	return out
}

// HasPermission reports whether node is granted, directly or through a
// wildcard: "*" grants everything and "a.b.*" grants every node under "a.b".
func (p *Player) HasPermission(node string) bool {
	if node == "" {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.perms[node] || p.perms["*"] {
		return true
	}
	for i := strings.LastIndexByte(node, '.'); i > 0; i = strings.LastIndexByte(node[:i], '.') {
		if p.perms[node[:i]+".*"] {
			return true
		}
	}
	return false
}

// Grant adds permission nodes.
func (p *Player) Grant(nodes ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range nodes {
		p.perms[n] = true
	}
}

// Revoke removes permission nodes.
func (p *Player) Revoke(nodes ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range nodes {
		delete(p.perms, n)
	}
}

// IsOnline reports whether the player is connected.
func (p *Player) IsOnline() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online
}

func (p *Player) setOnline(online bool) {
	p.mu.Lock()
	p.online = online
	if online {
		p.kickReason = ""
	}
	p.mu.Unlock()
}

// Kick disconnects the player with a reason.
func (p *Player) Kick(reason string) {
	p.mu.Lock()
	p.online = false
	p.kickReason = reason
	p.mu.Unlock()
	p.SendMessage("Kicked: " + reason)
}

// KickReason returns the reason of the last kick, empty if none.
func (p *Player) KickReason() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.kickReason
}

// Position returns the current position.
func (p *Player) Position() Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position
}

// SetPosition teleports the player.
func (p *Player) SetPosition(pos Position) {
	p.mu.Lock()
	p.position = pos
	p.mu.Unlock()
}

// Orientation returns the current facing.
func (p *Player) Orientation() Orientation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.orientation
}

// SetOrientation sets the facing.
func (p *Player) SetOrientation(o Orientation) {
	p.mu.Lock()
	p.orientation = o
	p.mu.Unlock()
}

// Health returns the current health.
func (p *Player) Health() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

// SetHealth sets health, clamped to [0, MaxHealth].
func (p *Player) SetHealth(h float64) {
	p.mu.Lock()
	p.health = max(0, min(h, p.maxHealth))
	p.mu.Unlock()
}

// MaxHealth returns the health ceiling.
func (p *Player) MaxHealth() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.maxHealth
}

// SetMaxHealth sets the ceiling and clamps current health to it.
func (p *Player) SetMaxHealth(h float64) {
	p.mu.Lock()
	p.maxHealth = max(0, h)
	p.health = min(p.health, p.maxHealth)
	p.mu.Unlock()
}

// WalkSpeed returns the walk speed.
func (p *Player) WalkSpeed() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.walkSpeed
}

// SetWalkSpeed sets the walk speed.
func (p *Player) SetWalkSpeed(s float64) {
	p.mu.Lock()
	p.walkSpeed = s
	p.mu.Unlock()
}

// Experience returns the experience points.
func (p *Player) Experience() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.experience
}

// SetExperience sets the experience points.
func (p *Player) SetExperience(xp int) {
	p.mu.Lock()
	p.experience = max(0, xp)
	p.mu.Unlock()
}

// String implements fmt.Stringer.
func (p *Player) String() string { return p.name }
