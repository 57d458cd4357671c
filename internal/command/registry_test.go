package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
)

type testSender struct {
	name    string
	console bool
	perms   map[string]bool
	msgs    []string
}

func newPlayer(name string, perms ...string) *testSender {
	s := &testSender{name: name, perms: make(map[string]bool)}
	for _, p := range perms {
		s.perms[p] = true
	}
	return s
}

func newConsole() *testSender {
	return &testSender{name: "CONSOLE", console: true}
}

func (s *testSender) Name() string           { return s.name }
func (s *testSender) SendMessage(msg string) { s.msgs = append(s.msgs, msg) }
func (s *testSender) IsConsole() bool        { return s.console }

func (s *testSender) HasPermission(node string) bool {
	return s.console || s.perms[node]
}

// healHandler records invocations and reported errors.
type healHandler struct {
	calls  int
	target string
	amount int
	errs   []*Error
}

func (h *healHandler) Commands() []Spec {
	return []Spec{{
		Name:    "Heal",
		Aliases: []string{"H"},
		Args: []Arg{
			{Name: "player", Kind: CompletePlayer},
			{Name: "amount", Type: Int, Optional: true, Default: "20"},
		},
		Run: func(_ context.Context, _ Sender, args Args) error {
			h.calls++
			h.target = args.String("player")
			h.amount = args.Int("amount")
			return nil
		},
	}}
}

func (h *healHandler) OnCommandError(_ Sender, _ string, err *Error) {
	h.errs = append(h.errs, err)
}

// specHandler serves an arbitrary table.
type specHandler struct {
	specs []Spec
	errs  []*Error
}

func (h *specHandler) Commands() []Spec { return h.specs }

func (h *specHandler) OnCommandError(_ Sender, _ string, err *Error) {
	h.errs = append(h.errs, err)
}

func (h *specHandler) lastErr(t *testing.T) *Error {
	t.Helper()
	if len(h.errs) == 0 {
		t.Fatal("no error reported")
	}
	return h.errs[len(h.errs)-1]
}

func mustRegister(t *testing.T, r *Registry, h Handler) {
	t.Helper()
	if err := r.Register(h); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

func TestCaseInsensitiveResolution(t *testing.T) {
	r := NewRegistry()
	h := &healHandler{}
	mustRegister(t, r, h)

	want, ok := r.Lookup("heal")
	if !ok {
		t.Fatal("heal not registered")
	}
	for _, line := range []string{"/heal x", "/HEAL x", "/h x", "heal x"} {
		t.Run(line, func(t *testing.T) {
			if !r.Execute(context.Background(), newPlayer("p"), line) {
				t.Fatalf("Execute(%q) = false, errs %v", line, h.errs)
			}
			label := strings.Fields(line)[0]
			if d, _ := r.Lookup(label); d != want {
				t.Errorf("Lookup(%q) resolved a different descriptor", label)
			}
		})
	}
	if h.calls != 4 {
		t.Errorf("calls = %d, want 4", h.calls)
	}
}

func TestMissingRequiredArgumentUsage(t *testing.T) {
	r := NewRegistry()
	h := &specHandler{specs: []Spec{{
		Name: "heal",
		Args: []Arg{{Name: "player"}},
		Run:  func(context.Context, Sender, Args) error { return nil },
	}}}
	mustRegister(t, r, h)

	if r.Execute(context.Background(), newPlayer("p"), "/heal") {
		t.Fatal("Execute() = true with a missing argument")
	}
	err := h.lastErr(t)
	if err.Type != InvalidArguments {
		t.Errorf("Type = %v, want InvalidArguments", err.Type)
	}
	if err.Usage != "/heal <player>" {
		t.Errorf("Usage = %q, want %q", err.Usage, "/heal <player>")
	}
	if err.Message != "Missing required argument: player" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestOptionalDefault(t *testing.T) {
	r := NewRegistry()
	h := &healHandler{}
	mustRegister(t, r, h)

	tests := []struct {
		line string
		want int
	}{
		{"/heal steve", 20},
		{"/heal steve 5", 5},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if !r.Execute(context.Background(), newPlayer("p"), tt.line) {
				t.Fatalf("Execute() = false, errs %v", h.errs)
			}
			if h.amount != tt.want || h.target != "steve" {
				t.Errorf("got (%q, %d), want (steve, %d)", h.target, h.amount, tt.want)
			}
		})
	}
}

func TestMalformedDefaultIsInvalidArguments(t *testing.T) {
	r := NewRegistry()
	calls := 0
	h := &specHandler{specs: []Spec{{
		Name: "heal",
		Args: []Arg{{Name: "amount", Type: Int, Optional: true, Default: "abc"}},
		Run: func(context.Context, Sender, Args) error {
			calls++
			return nil
		},
	}}}
	mustRegister(t, r, h)

	if r.Execute(context.Background(), newPlayer("p"), "/heal") {
		t.Fatal("Execute() = true with a malformed default")
	}
	err := h.lastErr(t)
	if err.Type != InvalidArguments || err.Message != "Invalid default value for argument: amount" {
		t.Errorf("got %v", err)
	}
	if calls != 0 {
		t.Errorf("body ran %d times", calls)
	}
	if !r.Execute(context.Background(), newPlayer("p"), "/heal 3") {
		t.Error("an explicit token should bypass the default")
	}
}

func TestPermissionGate(t *testing.T) {
	r := NewRegistry()
	calls := 0
	h := &specHandler{specs: []Spec{{
		Name:       "heal",
		Permission: "x.heal",
		Run: func(context.Context, Sender, Args) error {
			calls++
			return nil
		},
	}}}
	mustRegister(t, r, h)

	for i := 0; i < 3; i++ {
		if r.Execute(context.Background(), newPlayer("p"), "/heal") {
			t.Fatal("Execute() = true without permission")
		}
		if err := h.lastErr(t); err.Type != NoPermission {
			t.Errorf("Type = %v, want NoPermission", err.Type)
		}
	}
	if calls != 0 {
		t.Errorf("body ran %d times without permission", calls)
	}
	if !r.Execute(context.Background(), newPlayer("p", "x.heal"), "/heal") || calls != 1 {
		t.Errorf("permitted sender: calls = %d, want 1", calls)
	}
}

// brokenSender panics in every check the router makes before the body.
type brokenSender struct{ testSender }

func (*brokenSender) HasPermission(string) bool { panic("bridge lookup failed") }
func (*brokenSender) IsConsole() bool           { panic("bridge lookup failed") }

func TestSenderPanicContained(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"permission check", Spec{Name: "heal", Permission: "x.heal"}},
		{"player only check", Spec{Name: "heal", Restriction: PlayerOnly}},
		{"console only check", Spec{Name: "heal", Restriction: ConsoleOnly}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			calls := 0
			tt.spec.Run = func(context.Context, Sender, Args) error {
				calls++
				return nil
			}
			h := &specHandler{specs: []Spec{tt.spec}}
			mustRegister(t, r, h)

			if r.Execute(context.Background(), &brokenSender{testSender{name: "p"}}, "/heal") {
				t.Fatal("Execute() = true")
			}
			err := h.lastErr(t)
			if err.Type != ExecutionError || err.Command != "heal" {
				t.Errorf("reported %v for %q, want ExecutionError for heal", err.Type, err.Command)
			}
			if !strings.Contains(err.Message, "bridge lookup failed") {
				t.Errorf("Message = %q", err.Message)
			}
			if calls != 0 {
				t.Errorf("body ran %d times", calls)
			}
		})
	}
}

func TestSenderRestriction(t *testing.T) {
	noop := func(context.Context, Sender, Args) error { return nil }
	tests := []struct {
		name        string
		restriction SenderRestriction
		sender      Sender
		want        ErrorType
	}{
		{"player only rejects console", PlayerOnly, newConsole(), PlayerOnlyError},
		{"console only rejects player", ConsoleOnly, newPlayer("p"), ConsoleOnlyError},
		{"player only accepts player", PlayerOnly, newPlayer("p"), Unknown},
		{"console only accepts console", ConsoleOnly, newConsole(), Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			h := &specHandler{specs: []Spec{{Name: "cmd", Restriction: tt.restriction, Run: noop}}}
			mustRegister(t, r, h)

			ok := r.Execute(context.Background(), tt.sender, "/cmd")
			if tt.want == Unknown {
				if !ok {
					t.Errorf("Execute() = false, errs %v", h.errs)
				}
				return
			}
			if ok {
				t.Fatal("Execute() = true")
			}
			if got := h.lastErr(t).Type; got != tt.want {
				t.Errorf("Type = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoercion(t *testing.T) {
	var got Args
	h := &specHandler{specs: []Spec{{
		Name: "set",
		Args: []Arg{
			{Name: "i", Type: Int},
			{Name: "l", Type: Long},
			{Name: "d", Type: Double},
			{Name: "f", Type: Float},
			{Name: "b", Type: Bool},
			{Name: "o", Type: Other},
		},
		Run: func(_ context.Context, _ Sender, args Args) error {
			got = args
			return nil
		},
	}}}
	r := NewRegistry()
	mustRegister(t, r, h)

	if !r.Execute(context.Background(), newPlayer("p"), "/set 7 9000000000 1.5 2.5 TRUE thing") {
		t.Fatalf("Execute() = false, errs %v", h.errs)
	}
	if got.Int("i") != 7 || got.Int64("l") != 9000000000 || got.Float64("d") != 1.5 ||
		got.Float32("f") != 2.5 || !got.Bool("b") || got.String("o") != "thing" {
		t.Errorf("unexpected values %v", got.values)
	}

	bad := []struct {
		line string
		msg  string
	}{
		{"/set x 1 1 1 true o", "Invalid int for argument: i"},
		{"/set 9999999999 1 1 1 true o", "Invalid int for argument: i"},
		{"/set 1 x 1 1 true o", "Invalid long for argument: l"},
		{"/set 1 1 x 1 true o", "Invalid double for argument: d"},
		{"/set 1 1 1 x true o", "Invalid float for argument: f"},
		{"/set 1 1 1 1 yes o", "Invalid boolean for argument: b"},
	}
	for _, tt := range bad {
		t.Run(tt.line, func(t *testing.T) {
			if r.Execute(context.Background(), newPlayer("p"), tt.line) {
				t.Fatal("Execute() = true")
			}
			err := h.lastErr(t)
			if err.Type != InvalidArguments || err.Message != tt.msg {
				t.Errorf("got %v, want InvalidArguments %q", err, tt.msg)
			}
		})
	}
}

func TestRestArgument(t *testing.T) {
	var msg string
	h := &specHandler{specs: []Spec{{
		Name: "say",
		Args: []Arg{{Name: "message", Rest: true}},
		Run: func(_ context.Context, _ Sender, args Args) error {
			msg = args.String("message")
			return nil
		},
	}}}
	r := NewRegistry()
	mustRegister(t, r, h)

	if !r.Execute(context.Background(), newConsole(), "/say  hello   big world ") {
		t.Fatal("Execute() = false")
	}
	if msg != "hello big world" {
		t.Errorf("message = %q", msg)
	}
	if d, _ := r.Lookup("say"); d.Usage() != "/say <message...>" {
		t.Errorf("Usage() = %q", d.Usage())
	}
}

func TestExecutionErrors(t *testing.T) {
	root := errors.New("disk on fire")
	tests := []struct {
		name    string
		run     RunFunc
		typ     ErrorType
		message string
	}{
		{
			name:    "wrapped error reports innermost cause",
			run:     func(context.Context, Sender, Args) error { return fmt.Errorf("save: %w", root) },
			typ:     ExecutionError,
			message: "disk on fire",
		},
		{
			name:    "panic",
			run:     func(context.Context, Sender, Args) error { panic("boom") },
			typ:     ExecutionError,
			message: "panic: boom",
		},
		{
			name:    "usage",
			run:     func(context.Context, Sender, Args) error { return ErrUsage },
			typ:     InvalidArguments,
			message: "Invalid arguments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			h := &specHandler{specs: []Spec{{Name: "cmd", Run: tt.run}}}
			mustRegister(t, r, h)
			if r.Execute(context.Background(), newPlayer("p"), "/cmd") {
				t.Fatal("Execute() = true")
			}
			err := h.lastErr(t)
			if err.Type != tt.typ || err.Message != tt.message {
				t.Errorf("got (%v, %q), want (%v, %q)", err.Type, err.Message, tt.typ, tt.message)
			}
		})
	}
}

func TestDefaultReporterMessages(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterExecutor("secret", func(context.Context, Sender, string, []string) error {
		return nil
	}, WithPermission("x.secret"))
	if err != nil {
		t.Fatal(err)
	}
	s := newPlayer("p")
	r.Execute(context.Background(), s, "/secret")
	if !slices.Equal(s.msgs, []string{"You don't have permission to use this command."}) {
		t.Errorf("messages = %v", s.msgs)
	}
}

func TestUnknownCommand(t *testing.T) {
	r := NewRegistry()
	s := newPlayer("p")
	if r.Execute(context.Background(), s, "/nothing here") {
		t.Error("unknown command executed")
	}
	if r.Execute(context.Background(), s, "   ") {
		t.Error("blank line executed")
	}
	if len(s.msgs) != 0 {
		t.Errorf("unknown command sent %v", s.msgs)
	}
}

type hookHandler struct {
	specHandler
	allow  bool
	before int
	after  int
}

func (h *hookHandler) OnBeforeCommand(Sender, string, []string) bool {
	h.before++
	return h.allow
}

func (h *hookHandler) OnAfterCommand(Sender, string, []string) {
	h.after++
}

func TestHooks(t *testing.T) {
	for _, allow := range []bool{true, false} {
		t.Run(fmt.Sprint(allow), func(t *testing.T) {
			calls := 0
			h := &hookHandler{allow: allow}
			h.specs = []Spec{{Name: "cmd", Run: func(context.Context, Sender, Args) error {
				calls++
				return nil
			}}}
			r := NewRegistry()
			mustRegister(t, r, h)

			if got := r.Execute(context.Background(), newPlayer("p"), "/cmd"); got != allow {
				t.Errorf("Execute() = %v, want %v", got, allow)
			}
			wantCalls := 0
			if allow {
				wantCalls = 1
			}
			if calls != wantCalls || h.after != wantCalls || h.before != 1 {
				t.Errorf("calls=%d after=%d before=%d", calls, h.after, h.before)
			}
			if len(h.errs) != 0 {
				t.Errorf("a vetoing hook must stay silent, got %v", h.errs)
			}
		})
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	h := &healHandler{}
	mustRegister(t, r, h)

	if !r.Unregister(h) {
		t.Error("first Unregister() = false")
	}
	if r.Unregister(h) {
		t.Error("second Unregister() = true")
	}
	if _, ok := r.Lookup("h"); ok {
		t.Error("alias survived unregistration")
	}
	if r.Unregister(&healHandler{}) {
		t.Error("Unregister() of an unknown handler = true")
	}
}

func TestUnregisterType(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &healHandler{})
	other := &specHandler{specs: []Spec{{Name: "other", Run: func(context.Context, Sender, Args) error { return nil }}}}
	mustRegister(t, r, other)

	if n := r.UnregisterType(&healHandler{}); n != 1 {
		t.Errorf("UnregisterType() = %d, want 1", n)
	}
	if got := r.Names(); !slices.Equal(got, []string{"other"}) {
		t.Errorf("Names() = %v", got)
	}
	if n := r.UnregisterType(&healHandler{}); n != 0 {
		t.Errorf("second UnregisterType() = %d, want 0", n)
	}
}

func TestOverwriteTransfersName(t *testing.T) {
	r := NewRegistry()
	first := &healHandler{}
	mustRegister(t, r, first)
	second := &specHandler{specs: []Spec{{Name: "h", Run: func(context.Context, Sender, Args) error { return nil }}}}
	mustRegister(t, r, second)

	if d, _ := r.Lookup("h"); d.Owner() != second {
		t.Error("later registration should own the name")
	}
	if d, _ := r.Lookup("heal"); d.Owner() != first {
		t.Error("first handler should keep its other names")
	}
	r.Unregister(first)
	if _, ok := r.Lookup("h"); !ok {
		t.Error("unregistering the old owner removed the new owner's name")
	}
}

func TestReRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	h := &specHandler{specs: []Spec{{Name: "a", Run: func(context.Context, Sender, Args) error { return nil }}}}
	mustRegister(t, r, h)
	h.specs[0].Name = "b"
	mustRegister(t, r, h)

	if got := r.Names(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Names() = %v, want [b]", got)
	}
}

func TestUnregisterCommand(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &healHandler{})
	if !r.UnregisterCommand("H") {
		t.Fatal("UnregisterCommand() = false")
	}
	if len(r.Names()) != 0 {
		t.Errorf("Names() = %v, want none", r.Names())
	}
	if r.UnregisterCommand("heal") {
		t.Error("second UnregisterCommand() = true")
	}
}

func TestRegistrationErrors(t *testing.T) {
	noop := func(context.Context, Sender, Args) error { return nil }
	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{"empty name", Spec{Run: noop}, ErrEmptyName},
		{"space in name", Spec{Name: "a b", Run: noop}, ErrInvalidName},
		{"prefixed name", Spec{Name: "/a", Run: noop}, ErrInvalidName},
		{"bad alias", Spec{Name: "a", Aliases: []string{""}, Run: noop}, ErrEmptyName},
		{"no body", Spec{Name: "a"}, ErrNilRun},
		{"empty arg name", Spec{Name: "a", Run: noop, Args: []Arg{{}}}, ErrEmptyArgName},
		{"duplicate arg", Spec{Name: "a", Run: noop, Args: []Arg{{Name: "x"}, {Name: "x"}}}, ErrDuplicateArg},
		{"unknown type", Spec{Name: "a", Run: noop, Args: []Arg{{Name: "x", Type: SemanticType(99)}}}, ErrUnknownType},
		{"unknown kind", Spec{Name: "a", Run: noop, Args: []Arg{{Name: "x", Kind: CompletionKind(99)}}}, ErrUnknownCompletion},
		{"required after optional", Spec{Name: "a", Run: noop, Args: []Arg{{Name: "x", Optional: true}, {Name: "y"}}}, ErrRequiredAfterOptional},
		{"rest not last", Spec{Name: "a", Run: noop, Args: []Arg{{Name: "x", Rest: true}, {Name: "y"}}}, ErrRestNotLast},
		{"rest not string", Spec{Name: "a", Run: noop, Args: []Arg{{Name: "x", Type: Int, Rest: true}}}, ErrRestNotString},
		{"missing method", Spec{Name: "a", Run: noop, Args: []Arg{{Name: "x", Kind: CompleteMethod, CompletionMethod: "nope"}}}, ErrUnknownCompletionMethod},
		{"bad restriction", Spec{Name: "a", Run: noop, Restriction: SenderRestriction(7)}, ErrInvalidRestriction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			good := Spec{Name: "good", Run: noop}
			err := r.Register(&specHandler{specs: []Spec{good, tt.spec}})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Register() error = %v, want %v", err, tt.want)
			}
			var re *RegistrationError
			if !errors.As(err, &re) {
				t.Errorf("error %T is not a *RegistrationError", err)
			}
			if len(r.Names()) != 0 {
				t.Errorf("a failed registration installed %v", r.Names())
			}
		})
	}

	r := NewRegistry()
	if err := r.Register(nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("Register(nil) error = %v", err)
	}
}

type sliceHandler []Spec

func (h sliceHandler) Commands() []Spec { return h }

func TestRegisterRejectsNonComparableHandler(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(sliceHandler{}); !errors.Is(err, ErrNotComparable) {
		t.Errorf("Register() error = %v, want ErrNotComparable", err)
	}
	if r.Unregister(sliceHandler{}) {
		t.Error("Unregister() of a non-comparable handler = true")
	}
}

func TestDescriptorsUnique(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, &healHandler{})
	if _, err := r.RegisterExecutor("abc", func(context.Context, Sender, string, []string) error { return nil }); err != nil {
		t.Fatal(err)
	}

	ds := r.Descriptors()
	if len(ds) != 2 || ds[0].Name() != "abc" || ds[1].Name() != "Heal" {
		t.Fatalf("Descriptors() = %v", ds)
	}
	if got := r.Names(); !slices.Equal(got, []string{"abc", "h", "heal"}) {
		t.Errorf("Names() = %v", got)
	}
	if got := r.Usage("/heal"); got != "/Heal <player> [amount]" {
		t.Errorf("Usage() = %q", got)
	}
}

func TestRegisterExecutor(t *testing.T) {
	r := NewRegistry(WithPrefix("!"))
	var gotLabel string
	var gotArgs []string
	h, err := r.RegisterExecutor("echo", func(_ context.Context, _ Sender, label string, args []string) error {
		gotLabel, gotArgs = label, args
		return nil
	}, WithAliases("e"), WithDescription("echo input"))
	if err != nil {
		t.Fatal(err)
	}

	if !r.Execute(context.Background(), newConsole(), "!E one two") {
		t.Fatal("Execute() = false")
	}
	if gotLabel != "e" || !slices.Equal(gotArgs, []string{"one", "two"}) {
		t.Errorf("got (%q, %v)", gotLabel, gotArgs)
	}
	if d, _ := r.Lookup("echo"); d.Usage() != "!echo" || d.Description() != "echo input" {
		t.Errorf("descriptor = %q %q", d.Usage(), d.Description())
	}
	if !r.Unregister(h) || r.Unregister(h) {
		t.Error("executor handler should unregister exactly once")
	}
}

type panickyReporter struct{ specHandler }

func (*panickyReporter) OnCommandError(Sender, string, *Error) { panic("reporter") }

func TestReporterPanicContained(t *testing.T) {
	r := NewRegistry()
	h := &panickyReporter{}
	h.specs = []Spec{{Name: "cmd", Args: []Arg{{Name: "x"}}, Run: func(context.Context, Sender, Args) error { return nil }}}
	mustRegister(t, r, h)
	if r.Execute(context.Background(), newPlayer("p"), "/cmd") {
		t.Error("Execute() = true")
	}
}
