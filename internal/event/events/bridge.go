package events

import (
	"context"
	"fmt"

	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/platform"
)

// Host-side flows. Each one fires the event, then applies whatever the
// listeners left in it, the way a platform bridge translates native
// events.

// Join connects p, fires PlayerJoin and broadcasts the join message.
func Join(ctx context.Context, bus *event.Bus, srv *platform.Server, p *platform.Player) (*PlayerJoin, error) {
	if err := srv.Connect(p); err != nil {
		return nil, fmt.Errorf("join %s: %w", p.Name(), err)
	}
	e := NewPlayerJoin(p, p.Name()+" joined the game")
	bus.Fire(ctx, e)
	if e.JoinMessage != "" {
		srv.Broadcast(e.JoinMessage)
	}
	return e, nil
}

// Quit disconnects the named player, fires PlayerQuit and broadcasts the
// quit message to those still online.
func Quit(ctx context.Context, bus *event.Bus, srv *platform.Server, name string) (*PlayerQuit, error) {
	p, err := srv.Disconnect(name)
	if err != nil {
		return nil, fmt.Errorf("quit %s: %w", name, err)
	}
	e := NewPlayerQuit(p, p.Name()+" left the game")
	bus.Fire(ctx, e)
	if e.QuitMessage != "" {
		srv.Broadcast(e.QuitMessage)
	}
	return e, nil
}

// Chat fires PlayerChat and, unless cancelled, broadcasts the formatted
// line.
func Chat(ctx context.Context, bus *event.Bus, srv *platform.Server, p *platform.Player, message string) *PlayerChat {
	e := NewPlayerChat(p, message, DefaultChatFormat)
	bus.Fire(ctx, e)
	if !e.IsCancelled() {
		srv.Broadcast(e.Formatted())
	}
	return e
}

// Move fires PlayerMove and, unless cancelled, applies the new location.
func Move(ctx context.Context, bus *event.Bus, p *platform.Player, to platform.Position, facing platform.Orientation) *PlayerMove {
	e := NewPlayerMove(p, to, facing)
	bus.Fire(ctx, e)
	if !e.IsCancelled() {
		p.SetPosition(e.To)
		p.SetOrientation(e.ToFacing)
	}
	return e
}
