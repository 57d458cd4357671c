package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/piston/internal/command"
	"github.com/dshills/piston/internal/plugin"
	"github.com/dshills/piston/internal/plugin/lua"
)

// helpPageSize is the number of commands per help page.
const helpPageSize = 8

// builtins are the host commands that exist without any plugin.
type builtins struct {
	app *Application
}

func (b *builtins) Commands() []command.Spec {
	return []command.Spec{
		{
			Name:        "help",
			Aliases:     []string{"?"},
			Description: "List commands or show one command's usage",
			Args: []command.Arg{
				{Name: "topic", Optional: true, Kind: command.CompleteMethod, CompletionMethod: "commands"},
			},
			Run: b.help,
		},
		{
			Name:        "plugins",
			Aliases:     []string{"pl"},
			Description: "List plugins",
			Run:         b.plugins,
		},
		{
			Name:        "plugin",
			Description: "Enable, disable, reload or inspect a plugin",
			Permission:  "piston.plugins",
			Args: []command.Arg{
				{Name: "action", Completions: []string{"enable", "disable", "reload", "info"}},
				{Name: "name", Kind: command.CompleteMethod, CompletionMethod: "plugins"},
			},
			Run: b.plugin,
		},
		{
			Name:        "list",
			Aliases:     []string{"online"},
			Description: "List online players",
			Run:         b.list,
		},
		{
			Name:        "say",
			Description: "Broadcast a message",
			Permission:  "piston.say",
			Args:        []command.Arg{{Name: "message", Rest: true}},
			Run:         b.say,
		},
		{
			Name:        "stop",
			Description: "Stop the server",
			Permission:  "piston.stop",
			Run:         b.stop,
		},
		{
			Name:        "events",
			Description: "Show event bus statistics",
			Permission:  "piston.events",
			Run:         b.events,
		},
		{
			Name:        "jobs",
			Description: "List scheduled jobs",
			Permission:  "piston.jobs",
			Run:         b.jobs,
		},
	}
}

func (b *builtins) CompletionMethods() map[string]command.CompletionFunc {
	return map[string]command.CompletionFunc{
		"commands": func(command.Sender, string, []string, string) []string {
			return b.app.commands.Names()
		},
		"plugins": func(command.Sender, string, []string, string) []string {
			return pluginNames(b.app.plugins.List())
		},
	}
}

func (b *builtins) help(_ context.Context, s command.Sender, args command.Args) error {
	topic := args.String("topic")
	page := 1
	if topic != "" {
		n, err := strconv.Atoi(topic)
		if err != nil {
			return b.helpTopic(s, topic)
		}
		page = n
	}

	var lines []string
	for _, d := range b.app.commands.Descriptors() {
		if d.Permission() != "" && !s.HasPermission(d.Permission()) {
			continue
		}
		line := b.app.commands.Prefix() + d.Name()
		if d.Description() != "" {
			line += " - " + d.Description()
		}
		lines = append(lines, line)
	}

	pages := max(1, (len(lines)+helpPageSize-1)/helpPageSize)
	if page < 1 || page > pages {
		s.SendMessage(fmt.Sprintf("Page %d does not exist. There are %d pages.", page, pages))
		return nil
	}
	s.SendMessage(fmt.Sprintf("--- Help (page %d/%d) ---", page, pages))
	start := (page - 1) * helpPageSize
	for _, line := range lines[start:min(start+helpPageSize, len(lines))] {
		s.SendMessage(line)
	}
	return nil
}

func (b *builtins) helpTopic(s command.Sender, topic string) error {
	d, ok := b.app.commands.Lookup(topic)
	if !ok {
		s.SendMessage("No help for " + topic)
		return nil
	}
	s.SendMessage("Usage: " + d.Usage())
	if aliases := d.Aliases(); len(aliases) > 0 {
		s.SendMessage("Aliases: " + strings.Join(aliases, ", "))
	}
	if d.Description() != "" {
		s.SendMessage("Description: " + d.Description())
	}
	if d.Permission() != "" {
		s.SendMessage("Permission: " + d.Permission())
	}
	return nil
}

func (b *builtins) plugins(_ context.Context, s command.Sender, _ command.Args) error {
	infos := b.app.plugins.List()
	parts := make([]string, len(infos))
	for i, info := range infos {
		parts[i] = fmt.Sprintf("%s v%s [%s]", info.Name, info.Version, info.State)
	}
	s.SendMessage(fmt.Sprintf("Plugins (%d): %s", len(infos), strings.Join(parts, ", ")))
	return nil
}

func (b *builtins) plugin(ctx context.Context, s command.Sender, args command.Args) error {
	name := args.String("name")
	mgr := b.app.plugins

	var err error
	switch strings.ToLower(args.String("action")) {
	case "enable":
		err = mgr.Enable(ctx, name)
	case "disable":
		err = mgr.Disable(ctx, name)
	case "reload":
		err = b.reload(ctx, name)
	case "info":
		info, ok := mgr.Info(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
		}
		s.SendMessage(fmt.Sprintf("%s v%s: %s, %d commands, %d listeners",
			info.Name, info.Version, info.State, info.Commands, info.Handlers))
		if info.Err != nil {
			s.SendMessage("Last error: " + info.Err.Error())
		}
		return nil
	default:
		return command.ErrUsage
	}
	if err != nil {
		return err
	}
	s.SendMessage(fmt.Sprintf("Plugin %s: %s done", name, strings.ToLower(args.String("action"))))
	return nil
}

// reload swaps in a fresh copy of a script plugin from disk.
func (b *builtins) reload(ctx context.Context, name string) error {
	p, ok := b.app.plugins.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}
	path := b.app.scriptPath(name)
	if s, ok := p.(*lua.Script); ok {
		path = s.Path()
	}
	s, err := lua.Load(path)
	if err != nil {
		return err
	}
	return b.app.plugins.Replace(ctx, s)
}

func (b *builtins) list(_ context.Context, s command.Sender, _ command.Args) error {
	names := b.app.server.PlayerNames(true)
	s.SendMessage(fmt.Sprintf("There are %d players online: %s", len(names), strings.Join(names, ", ")))
	return nil
}

func (b *builtins) say(_ context.Context, s command.Sender, args command.Args) error {
	msg := fmt.Sprintf("[%s] %s", senderLabel(s), args.String("message"))
	b.app.server.Broadcast(msg)
	b.app.console.SendMessage(msg)
	return nil
}

func senderLabel(s command.Sender) string {
	if command.IsConsole(s) {
		return "Server"
	}
	return s.Name()
}

func (b *builtins) stop(_ context.Context, s command.Sender, _ command.Args) error {
	s.SendMessage("Stopping the server...")
	b.app.Stop()
	return nil
}

func (b *builtins) events(_ context.Context, s command.Sender, _ command.Args) error {
	st := b.app.events.Stats()
	s.SendMessage(fmt.Sprintf("Events: fired=%d filtered=%d delivered=%d skipped=%d failed=%d panicked=%d overflowed=%d listeners=%d",
		st.Fired, st.Filtered, st.Delivered, st.Skipped, st.Failed, st.Panicked, st.Overflowed, st.Listeners))
	return nil
}

func (b *builtins) jobs(_ context.Context, s command.Sender, _ command.Args) error {
	jobs := b.app.scheduler.Jobs()
	if len(jobs) == 0 {
		s.SendMessage("No scheduled jobs")
		return nil
	}
	for _, j := range jobs {
		line := fmt.Sprintf("%s [%s]", j.Name, j.Expression)
		if next, err := b.app.scheduler.Next(j.Name); err == nil {
			line += " next " + next.Format(time.DateTime)
		}
		s.SendMessage(line)
	}
	return nil
}

var _ command.CompletionProvider = (*builtins)(nil)

func pluginNames(infos []plugin.Info) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}
