package plugin

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/dshills/piston/internal/command"
	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/event/events"
	"github.com/dshills/piston/internal/logging"
	"github.com/dshills/piston/internal/platform"
)

type greeter struct {
	cmds []command.Spec
}

func (g *greeter) Commands() []command.Spec { return g.cmds }

type testPlugin struct {
	name       string
	enableErr  error
	disableErr error
	panicOn    string
	enabled    int
	disabled   int
}

func (p *testPlugin) Name() string    { return p.name }
func (p *testPlugin) Version() string { return "1.0.0" }

func (p *testPlugin) Enable(ctx context.Context, pc *Context) error {
	p.enabled++
	if p.panicOn == "enable" {
		panic("enable exploded")
	}
	h := &greeter{cmds: []command.Spec{{
		Name: p.name + "-hello",
		Run: func(_ context.Context, s command.Sender, _ command.Args) error {
			s.SendMessage("hello from " + p.name)
			return nil
		},
	}}}
	if err := pc.RegisterCommands(h); err != nil {
		return err
	}
	if err := pc.RegisterExecutor(p.name+"-raw", func(context.Context, command.Sender, string, []string) error {
		return nil
	}); err != nil {
		return err
	}
	if _, err := pc.Subscribe(events.KeyPlayerJoin, func(context.Context, event.Event) error { return nil }); err != nil {
		return err
	}
	return p.enableErr
}

func (p *testPlugin) Disable(context.Context, *Context) error {
	p.disabled++
	if p.panicOn == "disable" {
		panic("disable exploded")
	}
	return p.disableErr
}

type lifecycleRecorder struct {
	seen []string
}

func (r *lifecycleRecorder) EventHandlers() []event.HandlerSpec {
	return []event.HandlerSpec{{
		Name: "lifecycle",
		Key:  events.TagPlugin,
		Handle: func(_ context.Context, e event.Event) error {
			switch pe := e.(type) {
			case *events.PluginEnable:
				r.seen = append(r.seen, "enable:"+pe.Plugin)
			case *events.PluginDisable:
				r.seen = append(r.seen, "disable:"+pe.Plugin)
			}
			return nil
		},
	}}
}

func newServices() Services {
	srv := platform.NewServer()
	return Services{
		Commands: command.NewRegistry(command.WithPlatform(srv)),
		Events:   event.NewBus(),
		Server:   srv,
		Logger:   logging.Nop(),
	}
}

func TestEnableDisableOwnsRegistrations(t *testing.T) {
	svc := newServices()
	rec := &lifecycleRecorder{}
	if _, err := svc.Events.Register(rec); err != nil {
		t.Fatal(err)
	}
	m := NewManager(svc)
	p := &testPlugin{name: "alpha"}
	if err := m.Add(p); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := m.Enable(ctx, "alpha"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if _, ok := svc.Commands.Lookup("alpha-hello"); !ok {
		t.Error("command not registered")
	}
	if svc.Events.ListenerCount(events.KeyPlayerJoin) != 1 {
		t.Error("listener not registered")
	}
	info, _ := m.Info("alpha")
	if info.State != StateEnabled || info.Commands != 2 || info.Handlers != 1 {
		t.Errorf("Info() = %+v", info)
	}
	if err := m.Enable(ctx, "alpha"); !errors.Is(err, ErrAlreadyEnabled) {
		t.Errorf("second Enable() error = %v", err)
	}

	if err := m.Disable(ctx, "alpha"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if len(svc.Commands.Names()) != 0 {
		t.Errorf("commands left after disable: %v", svc.Commands.Names())
	}
	if svc.Events.ListenerCount(events.KeyPlayerJoin) != 0 {
		t.Error("listener left after disable")
	}
	if err := m.Disable(ctx, "alpha"); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("second Disable() error = %v", err)
	}
	if !slices.Equal(rec.seen, []string{"enable:alpha", "disable:alpha"}) {
		t.Errorf("lifecycle events = %v", rec.seen)
	}
}

func TestEnableFailureRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		plugin *testPlugin
	}{
		{"error", &testPlugin{name: "beta", enableErr: errors.New("no config")}},
		{"panic", &testPlugin{name: "beta", panicOn: "enable"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newServices()
			m := NewManager(svc)
			if err := m.Add(tt.plugin); err != nil {
				t.Fatal(err)
			}
			if err := m.Enable(context.Background(), "beta"); err == nil {
				t.Fatal("Enable() succeeded")
			}
			if len(svc.Commands.Names()) != 0 || svc.Events.Stats().Listeners != 0 {
				t.Error("failed enable left registrations behind")
			}
			info, _ := m.Info("beta")
			if info.State != StateError || info.Err == nil {
				t.Errorf("Info() = %+v", info)
			}
		})
	}
}

func TestDisableFailureStillReleases(t *testing.T) {
	svc := newServices()
	m := NewManager(svc)
	p := &testPlugin{name: "gamma", panicOn: "disable"}
	if err := m.Add(p); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := m.Enable(ctx, "gamma"); err != nil {
		t.Fatal(err)
	}
	if err := m.Disable(ctx, "gamma"); err == nil {
		t.Error("Disable() hid the panic")
	}
	if len(svc.Commands.Names()) != 0 {
		t.Error("commands left after failed disable")
	}
	if info, _ := m.Info("gamma"); info.State != StateDisabled {
		t.Errorf("state = %v", info.State)
	}
}

func TestEnableAllDisableAll(t *testing.T) {
	svc := newServices()
	rec := &lifecycleRecorder{}
	if _, err := svc.Events.Register(rec); err != nil {
		t.Fatal(err)
	}
	m := NewManager(svc, WithDisabled(func(name string) bool { return name == "off" }))
	for _, p := range []*testPlugin{
		{name: "one"},
		{name: "off"},
		{name: "bad", enableErr: errors.New("broken")},
		{name: "two"},
	} {
		if err := m.Add(p); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	err := m.EnableAll(ctx)
	if err == nil {
		t.Error("EnableAll() should report the failing plugin")
	}
	if m.CountEnabled() != 2 {
		t.Errorf("CountEnabled() = %d, want 2", m.CountEnabled())
	}
	if err := m.Enable(ctx, "off"); !errors.Is(err, ErrPluginDisabled) {
		t.Errorf("Enable(off) error = %v", err)
	}

	if err := m.DisableAll(ctx); err != nil {
		t.Errorf("DisableAll() error = %v", err)
	}
	want := []string{"enable:one", "enable:two", "disable:two", "disable:one"}
	if !slices.Equal(rec.seen, want) {
		t.Errorf("lifecycle events = %v, want %v", rec.seen, want)
	}

	var names []string
	for _, info := range m.List() {
		names = append(names, info.Name)
	}
	if !slices.Equal(names, []string{"one", "off", "bad", "two"}) {
		t.Errorf("List() order = %v", names)
	}
}

func TestAddErrors(t *testing.T) {
	m := NewManager(newServices())
	if err := m.Add(nil); !errors.Is(err, ErrNilPlugin) {
		t.Errorf("Add(nil) error = %v", err)
	}
	if err := m.Add(&testPlugin{name: " "}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Add(blank) error = %v", err)
	}
	if err := m.Add(&testPlugin{name: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(&testPlugin{name: "x"}); !errors.Is(err, ErrAlreadyAdded) {
		t.Errorf("duplicate Add() error = %v", err)
	}
	if err := m.Enable(context.Background(), "missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Enable(missing) error = %v", err)
	}
}

func TestReplaceAndRemove(t *testing.T) {
	svc := newServices()
	m := NewManager(svc)
	ctx := context.Background()

	first := &testPlugin{name: "delta"}
	if err := m.Replace(ctx, first); err != nil {
		t.Fatalf("Replace() of a new plugin error = %v", err)
	}
	second := &testPlugin{name: "delta"}
	if err := m.Replace(ctx, second); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if first.disabled != 1 || second.enabled != 1 {
		t.Errorf("first.disabled=%d second.enabled=%d", first.disabled, second.enabled)
	}
	if p, _ := m.Get("delta"); p != second {
		t.Error("Get() did not return the replacement")
	}
	if len(svc.Commands.Names()) != 2 {
		t.Errorf("Names() = %v", svc.Commands.Names())
	}

	if err := m.Remove(ctx, "delta"); err != nil {
		t.Fatal(err)
	}
	if m.Count() != 0 || len(svc.Commands.Names()) != 0 {
		t.Error("Remove() left state behind")
	}
}

func TestContextCommandsRunForSenders(t *testing.T) {
	svc := newServices()
	m := NewManager(svc)
	if err := m.Add(&testPlugin{name: "echo"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Enable(context.Background(), "echo"); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if !svc.Commands.Execute(context.Background(), platform.NewConsole(&out), "/echo-hello") {
		t.Fatal("plugin command did not run")
	}
	if out.String() != "hello from echo\n" {
		t.Errorf("console output = %q", out.String())
	}
}
