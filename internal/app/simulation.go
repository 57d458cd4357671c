package app

import (
	"context"
	"fmt"

	"github.com/dshills/piston/internal/command"
	"github.com/dshills/piston/internal/event/events"
	"github.com/dshills/piston/internal/platform"
)

// simulation holds console commands that stand in for a game client:
// players join, chat, move and run commands through them.
type simulation struct {
	app *Application
}

func (sim *simulation) Commands() []command.Spec {
	player := command.Arg{Name: "player", Kind: command.CompleteOnlinePlayer}
	return []command.Spec{
		{
			Name:        "join",
			Description: "Connect a simulated player",
			Restriction: command.ConsoleOnly,
			Args:        []command.Arg{{Name: "name", Kind: command.CompletePlayer}},
			Run:         sim.join,
		},
		{
			Name:        "quit",
			Aliases:     []string{"kick"},
			Description: "Disconnect a simulated player",
			Restriction: command.ConsoleOnly,
			Args:        []command.Arg{player},
			Run:         sim.quit,
		},
		{
			Name:        "chat",
			Description: "Send chat as a player",
			Restriction: command.ConsoleOnly,
			Args:        []command.Arg{player, {Name: "message", Rest: true}},
			Run:         sim.chat,
		},
		{
			Name:        "move",
			Aliases:     []string{"tp"},
			Description: "Move a player",
			Restriction: command.ConsoleOnly,
			Args: []command.Arg{
				player,
				{Name: "x", Type: command.Double},
				{Name: "y", Type: command.Double},
				{Name: "z", Type: command.Double},
				{Name: "world", Optional: true, Kind: command.CompleteWorld},
			},
			Run: sim.move,
		},
		{
			Name:        "grant",
			Description: "Grant a permission to a player",
			Restriction: command.ConsoleOnly,
			Args:        []command.Arg{player, {Name: "node"}},
			Run:         sim.grant,
		},
		{
			Name:        "revoke",
			Description: "Revoke a permission from a player",
			Restriction: command.ConsoleOnly,
			Args:        []command.Arg{player, {Name: "node"}},
			Run:         sim.revoke,
		},
		{
			Name:        "sudo",
			Description: "Run a command as a player",
			Restriction: command.ConsoleOnly,
			Args:        []command.Arg{player, {Name: "command", Rest: true}},
			Run:         sim.sudo,
		},
		{
			Name:        "fire",
			Description: "Fire a named event",
			Restriction: command.ConsoleOnly,
			Args: []command.Arg{
				{Name: "event"},
				{Name: "data", Optional: true, Rest: true},
			},
			Run: sim.fire,
		},
	}
}

func (sim *simulation) online(name string) (*platform.Player, error) {
	p, ok := sim.app.server.Player(name)
	if !ok {
		return nil, fmt.Errorf("player %s is not online", name)
	}
	return p, nil
}

func (sim *simulation) join(ctx context.Context, s command.Sender, args command.Args) error {
	name := args.String("name")
	p, ok := sim.app.server.KnownPlayer(name)
	if !ok {
		console := sim.app.console
		p = platform.NewPlayer(name, platform.WithMessageSink(func(msg string) {
			console.SendMessage(fmt.Sprintf("[-> %s] %s", name, msg))
		}))
	}
	if _, err := events.Join(ctx, sim.app.events, sim.app.server, p); err != nil {
		return err
	}
	s.SendMessage(fmt.Sprintf("%s joined at %s", p.Name(), p.Position()))
	return nil
}

func (sim *simulation) quit(ctx context.Context, s command.Sender, args command.Args) error {
	if _, err := events.Quit(ctx, sim.app.events, sim.app.server, args.String("player")); err != nil {
		return err
	}
	s.SendMessage(args.String("player") + " disconnected")
	return nil
}

func (sim *simulation) chat(ctx context.Context, _ command.Sender, args command.Args) error {
	p, err := sim.online(args.String("player"))
	if err != nil {
		return err
	}
	e := events.Chat(ctx, sim.app.events, sim.app.server, p, args.String("message"))
	if e.IsCancelled() {
		sim.app.console.SendMessage("Chat from " + p.Name() + " was cancelled")
	} else {
		sim.app.console.SendMessage(e.Formatted())
	}
	return nil
}

func (sim *simulation) move(ctx context.Context, s command.Sender, args command.Args) error {
	p, err := sim.online(args.String("player"))
	if err != nil {
		return err
	}
	to := platform.Position{
		World: p.Position().World,
		X:     args.Float64("x"),
		Y:     args.Float64("y"),
		Z:     args.Float64("z"),
	}
	if w := args.String("world"); w != "" {
		world, ok := sim.app.server.World(w)
		if !ok {
			return fmt.Errorf("unknown world %s", w)
		}
		to.World = world.Name()
	}
	e := events.Move(ctx, sim.app.events, p, to, p.Orientation())
	if e.IsCancelled() {
		s.SendMessage("Move of " + p.Name() + " was cancelled")
		return nil
	}
	s.SendMessage(fmt.Sprintf("%s is now at %s", p.Name(), p.Position()))
	return nil
}

func (sim *simulation) grant(_ context.Context, s command.Sender, args command.Args) error {
	p, err := sim.online(args.String("player"))
	if err != nil {
		return err
	}
	p.Grant(args.String("node"))
	s.SendMessage(fmt.Sprintf("Granted %s to %s", args.String("node"), p.Name()))
	return nil
}

func (sim *simulation) revoke(_ context.Context, s command.Sender, args command.Args) error {
	p, err := sim.online(args.String("player"))
	if err != nil {
		return err
	}
	p.Revoke(args.String("node"))
	s.SendMessage(fmt.Sprintf("Revoked %s from %s", args.String("node"), p.Name()))
	return nil
}

func (sim *simulation) sudo(ctx context.Context, _ command.Sender, args command.Args) error {
	p, err := sim.online(args.String("player"))
	if err != nil {
		return err
	}
	line := args.String("command")
	if !sim.app.commands.Execute(ctx, p, line) {
		p.SendMessage("Unknown command.")
	}
	return nil
}

func (sim *simulation) fire(ctx context.Context, s command.Sender, args command.Args) error {
	var data any
	if d := args.String("data"); d != "" {
		data = d
	}
	e := events.NewCancellableSimple(args.String("event"), data)
	n := len(sim.app.events.Listeners(e))
	sim.app.events.Fire(ctx, e)
	s.SendMessage(fmt.Sprintf("Fired %s to %d listeners: data=%v cancelled=%t", e.EventName(), n, e.Data, e.IsCancelled()))
	return nil
}
