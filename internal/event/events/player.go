package events

import (
	"fmt"

	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/platform"
)

// Player event keys.
const (
	// TagPlayer is carried by every player event. Listening on it observes
	// joins, quits, chats and moves alike.
	TagPlayer event.Key = "player"

	// KeyPlayerJoin is fired after a player connects.
	KeyPlayerJoin event.Key = "player.join"

	// KeyPlayerQuit is fired after a player disconnects.
	KeyPlayerQuit event.Key = "player.quit"

	// KeyPlayerChat is fired before a chat line is broadcast.
	KeyPlayerChat event.Key = "player.chat"

	// KeyPlayerMove is fired before a movement is applied.
	KeyPlayerMove event.Key = "player.move"
)

// DefaultChatFormat renders the player name and the message.
const DefaultChatFormat = "<%s> %s"

// PlayerEvent is implemented by every event concerning one player.
type PlayerEvent interface {
	event.Event
	Player() *platform.Player
}

type playerBase struct {
	player *platform.Player
}

// Player returns the player the event concerns.
func (p *playerBase) Player() *platform.Player { return p.player }

// EventTags implements event.Tagged.
func (p *playerBase) EventTags() []event.Key { return []event.Key{TagPlayer} }

func (p *playerBase) playerName() string {
	if p.player == nil {
		return ""
	}
	return p.player.Name()
}

// PlayerJoin is fired after a player connects. Listeners may rewrite or
// clear the join message.
type PlayerJoin struct {
	event.Base
	playerBase

	// JoinMessage is broadcast after dispatch. Empty suppresses it.
	JoinMessage string
}

// NewPlayerJoin creates a join event.
func NewPlayerJoin(p *platform.Player, joinMessage string) *PlayerJoin {
	return &PlayerJoin{
		Base:        event.NewNamedBase(KeyPlayerJoin, "PlayerJoinEvent"),
		playerBase:  playerBase{player: p},
		JoinMessage: joinMessage,
	}
}

// String implements fmt.Stringer.
func (e *PlayerJoin) String() string {
	return fmt.Sprintf("%s{player=%s}", e.EventName(), e.playerName())
}

// PlayerQuit is fired after a player disconnects.
type PlayerQuit struct {
	event.Base
	playerBase

	// QuitMessage is broadcast after dispatch. Empty suppresses it.
	QuitMessage string
}

// NewPlayerQuit creates a quit event.
func NewPlayerQuit(p *platform.Player, quitMessage string) *PlayerQuit {
	return &PlayerQuit{
		Base:        event.NewNamedBase(KeyPlayerQuit, "PlayerQuitEvent"),
		playerBase:  playerBase{player: p},
		QuitMessage: quitMessage,
	}
}

// String implements fmt.Stringer.
func (e *PlayerQuit) String() string {
	return fmt.Sprintf("%s{player=%s}", e.EventName(), e.playerName())
}

// PlayerChat is fired before a chat line is broadcast. Cancelling it
// suppresses the line.
type PlayerChat struct {
	event.CancellableBase
	playerBase

	// Message is the chat text.
	Message string

	// Format is a fmt format receiving the player name and the message.
	Format string
}

// NewPlayerChat creates a chat event. An empty format means DefaultChatFormat.
func NewPlayerChat(p *platform.Player, message, format string) *PlayerChat {
	if format == "" {
		format = DefaultChatFormat
	}
	return &PlayerChat{
		CancellableBase: event.NewNamedCancellableBase(KeyPlayerChat, "PlayerChatEvent"),
		playerBase:      playerBase{player: p},
		Message:         message,
		Format:          format,
	}
}

// Formatted renders the line that would be broadcast.
func (e *PlayerChat) Formatted() string {
	return fmt.Sprintf(e.Format, e.playerName(), e.Message)
}

// String implements fmt.Stringer.
func (e *PlayerChat) String() string {
	return fmt.Sprintf("%s{player=%s, message=%s, cancelled=%t}",
		e.EventName(), e.playerName(), e.Message, e.IsCancelled())
}

// PlayerMove is fired before a movement is applied. Cancelling it keeps
// the player where it was.
type PlayerMove struct {
	event.CancellableBase
	playerBase

	From       platform.Position
	FromFacing platform.Orientation
	To         platform.Position
	ToFacing   platform.Orientation
}

// NewPlayerMove creates a move event from the player's current location.
func NewPlayerMove(p *platform.Player, to platform.Position, facing platform.Orientation) *PlayerMove {
	return &PlayerMove{
		CancellableBase: event.NewNamedCancellableBase(KeyPlayerMove, "PlayerMoveEvent"),
		playerBase:      playerBase{player: p},
		From:            p.Position(),
		FromFacing:      p.Orientation(),
		To:              to,
		ToFacing:        facing,
	}
}

// Distance returns how far the move goes.
func (e *PlayerMove) Distance() float64 {
	return e.From.DistanceTo(e.To)
}

// String implements fmt.Stringer.
func (e *PlayerMove) String() string {
	return fmt.Sprintf("%s{player=%s, from=%s, to=%s, cancelled=%t}",
		e.EventName(), e.playerName(), e.From, e.To, e.IsCancelled())
}
