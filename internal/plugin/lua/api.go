package lua

import (
	"context"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/piston/internal/command"
	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/event/events"
	"github.com/dshills/piston/internal/plugin"
)

// api binds the piston table of one script to its plugin Context.
type api struct {
	st *State
	pc *plugin.Context
}

// scriptCommand is the command handler behind one piston.command call.
type scriptCommand struct {
	specs   []command.Spec
	methods map[string]command.CompletionFunc
}

func (h *scriptCommand) Commands() []command.Spec { return h.specs }

func (h *scriptCommand) CompletionMethods() map[string]command.CompletionFunc { return h.methods }

func (a *api) install(L *lua.LState) {
	registerTypes(L)
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"command":    a.command,
		"on":         a.on,
		"fire":       a.fire,
		"fire_async": a.fireAsync,
		"log":        a.logAt("info"),
		"warn":       a.logAt("warn"),
		"error":      a.logAt("error"),
		"broadcast":  a.broadcast,
		"players":    a.players,
		"worlds":     a.worlds,
	})
	L.SetField(mod, "plugin", lua.LString(a.pc.Name()))
	L.SetGlobal("piston", mod)
	L.SetGlobal("print", L.NewFunction(a.logAt("info")))
}

var semanticTypes = map[string]command.SemanticType{
	"":        command.String,
	"string":  command.String,
	"int":     command.Int,
	"integer": command.Int,
	"long":    command.Long,
	"double":  command.Double,
	"number":  command.Double,
	"float":   command.Float,
	"bool":    command.Bool,
	"boolean": command.Bool,
	"other":   command.Other,
}

var restrictions = map[string]command.SenderRestriction{
	"":        command.AnySender,
	"any":     command.AnySender,
	"player":  command.PlayerOnly,
	"players": command.PlayerOnly,
	"console": command.ConsoleOnly,
}

// command implements piston.command{...}.
func (a *api) command(L *lua.LState) int {
	t := L.CheckTable(1)
	run, ok := t.RawGetString("run").(*lua.LFunction)
	if !ok {
		L.ArgError(1, "run must be a function")
		return 0
	}
	restriction, ok := restrictions[strings.ToLower(optString(t, "restriction"))]
	if !ok {
		L.ArgError(1, "restriction must be player or console")
		return 0
	}

	spec := command.Spec{
		Name:        optString(t, "name"),
		Aliases:     stringList(t.RawGetString("aliases")),
		Description: optString(t, "description"),
		Usage:       optString(t, "usage"),
		Permission:  optString(t, "permission"),
		Restriction: restriction,
	}
	h := &scriptCommand{methods: make(map[string]command.CompletionFunc)}

	if argsTbl, ok := t.RawGetString("args").(*lua.LTable); ok {
		for i := 1; i <= argsTbl.Len(); i++ {
			at, ok := argsTbl.RawGetInt(i).(*lua.LTable)
			if !ok {
				L.ArgError(1, fmt.Sprintf("args[%d] must be a table", i))
				return 0
			}
			arg, err := a.buildArg(at, h)
			if err != nil {
				L.ArgError(1, fmt.Sprintf("args[%d]: %v", i, err))
				return 0
			}
			spec.Args = append(spec.Args, arg)
		}
	}

	names := make([]string, len(spec.Args))
	for i, arg := range spec.Args {
		names[i] = arg.Name
	}
	spec.Run = func(_ context.Context, s command.Sender, args command.Args) error {
		return a.runCommand(run, s, names, args)
	}
	h.specs = []command.Spec{spec}

	if err := a.pc.RegisterCommands(h); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func (a *api) buildArg(t *lua.LTable, h *scriptCommand) (command.Arg, error) {
	typ, ok := semanticTypes[strings.ToLower(optString(t, "type"))]
	if !ok {
		return command.Arg{}, fmt.Errorf("unknown type %q", optString(t, "type"))
	}
	arg := command.Arg{
		Name:        optString(t, "name"),
		Type:        typ,
		Optional:    optBool(t, "optional"),
		Completions: stringList(t.RawGetString("completions")),
		Rest:        optBool(t, "rest"),
	}
	if def := t.RawGetString("default"); def != lua.LNil {
		arg.Default = def.String()
		arg.Optional = true
	}

	switch c := t.RawGetString("complete").(type) {
	case lua.LString:
		kind, ok := command.ParseCompletionKind(string(c))
		if !ok || kind == command.CompleteMethod {
			return command.Arg{}, fmt.Errorf("unknown completion %q", string(c))
		}
		arg.Kind = kind
	case *lua.LFunction:
		arg.Kind = command.CompleteMethod
		arg.CompletionMethod = arg.Name
		h.methods[arg.Name] = a.completer(c)
	}
	return arg, nil
}

// runCommand calls run(sender, args, raw). Returning false reports usage.
func (a *api) runCommand(run *lua.LFunction, s command.Sender, names []string, args command.Args) error {
	results, err := a.st.Invoke(run, func(L *lua.LState) []lua.LValue {
		named := L.NewTable()
		for i, name := range names {
			named.RawSetString(name, toLua(L, args.At(i)))
		}
		return []lua.LValue{newSender(L, s), named, toLua(L, args.Raw())}
	})
	if err != nil {
		return err
	}
	if len(results) > 0 && results[0] == lua.LFalse {
		return command.ErrUsage
	}
	return nil
}

func (a *api) completer(fn *lua.LFunction) command.CompletionFunc {
	return func(s command.Sender, label string, args []string, current string) []string {
		results, err := a.st.Invoke(fn, func(L *lua.LState) []lua.LValue {
			return []lua.LValue{newSender(L, s), lua.LString(label), toLua(L, args), lua.LString(current)}
		})
		if err != nil {
			a.pc.Logger().Warn("completion for %s failed: %v", label, err)
			return nil
		}
		if len(results) == 0 {
			return nil
		}
		return stringList(results[0])
	}
}

// on implements piston.on(key, fn, opts) and returns the listener id.
func (a *api) on(L *lua.LState) int {
	key := event.Key(L.CheckString(1))
	fn := L.CheckFunction(2)
	opts := L.OptTable(3, L.NewTable())

	prio, err := event.ParsePriority(optString(opts, "priority"))
	if err != nil {
		L.ArgError(3, err.Error())
		return 0
	}
	lopts := []event.ListenerOption{event.WithPriority(prio)}
	if optBool(opts, "receive_cancelled") {
		lopts = append(lopts, event.WithReceiveCancelled())
	}
	name := optString(opts, "name")
	if name == "" {
		name = a.pc.Name() + ":" + string(key)
	}
	lopts = append(lopts, event.WithName(name))

	l, err := a.pc.Subscribe(key, func(_ context.Context, e event.Event) error {
		_, err := a.st.Invoke(fn, func(L *lua.LState) []lua.LValue {
			return []lua.LValue{newEvent(L, e)}
		})
		return err
	}, lopts...)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LString(l.ID()))
	return 1
}

func simpleEvent(L *lua.LState) event.Event {
	name := L.CheckString(1)
	data := fromLua(L.Get(2))
	if L.OptBool(3, false) {
		return events.NewCancellableSimple(name, data)
	}
	return events.NewSimple(name, data)
}

// fire implements piston.fire(name, data, cancellable) and returns the
// possibly mutated data and whether the event was cancelled.
func (a *api) fire(L *lua.LState) int {
	e := simpleEvent(L)
	a.st.unlocked(func() {
		a.pc.Fire(context.Background(), e)
	})
	data, _ := events.DataAs[any](e)
	L.Push(toLua(L, data))
	L.Push(lua.LBool(event.IsCancelled(e)))
	return 2
}

// fireAsync implements piston.fire_async(name, data, cancellable).
func (a *api) fireAsync(L *lua.LState) int {
	a.pc.FireAsync(context.Background(), simpleEvent(L))
	return 0
}

func (a *api) logAt(level string) lua.LGFunction {
	return func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		msg := strings.Join(parts, " ")
		log := a.pc.Logger()
		switch level {
		case "warn":
			log.Warn("%s", msg)
		case "error":
			log.Error("%s", msg)
		default:
			log.Info("%s", msg)
		}
		return 0
	}
}

func (a *api) broadcast(L *lua.LState) int {
	msg := L.CheckString(1)
	if srv := a.pc.Server(); srv != nil {
		srv.Broadcast(msg)
	}
	return 0
}

func (a *api) players(L *lua.LState) int {
	var names []string
	if srv := a.pc.Server(); srv != nil {
		names = srv.PlayerNames(true)
	}
	L.Push(toLua(L, names))
	return 1
}

func (a *api) worlds(L *lua.LState) int {
	var names []string
	if srv := a.pc.Server(); srv != nil {
		names = srv.WorldNames()
	}
	L.Push(toLua(L, names))
	return 1
}
