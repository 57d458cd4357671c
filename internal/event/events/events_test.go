package events

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/platform"
)

func TestPlayerEventsCarryPlayerTag(t *testing.T) {
	p := platform.NewPlayer("Alex")
	tests := []struct {
		name string
		e    PlayerEvent
		key  event.Key
		want string
	}{
		{"join", NewPlayerJoin(p, "hi"), KeyPlayerJoin, "PlayerJoinEvent"},
		{"quit", NewPlayerQuit(p, "bye"), KeyPlayerQuit, "PlayerQuitEvent"},
		{"chat", NewPlayerChat(p, "msg", ""), KeyPlayerChat, "PlayerChatEvent"},
		{"move", NewPlayerMove(p, platform.Position{}, platform.Orientation{}), KeyPlayerMove, "PlayerMoveEvent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.e.EventKey() != tt.key {
				t.Errorf("EventKey() = %q, want %q", tt.e.EventKey(), tt.key)
			}
			if event.Name(tt.e) != tt.want {
				t.Errorf("Name() = %q, want %q", event.Name(tt.e), tt.want)
			}
			if tt.e.Player() != p {
				t.Error("Player() should return the constructing player")
			}
			tagged, ok := tt.e.(event.Tagged)
			if !ok || !slices.Contains(tagged.EventTags(), TagPlayer) {
				t.Error("player events must carry TagPlayer")
			}
		})
	}
}

func TestPlayerTagListenerSeesEveryPlayerEvent(t *testing.T) {
	bus := event.NewBus()
	var seen []event.Key
	_, err := event.On(bus, TagPlayer, func(ctx context.Context, e PlayerEvent) error {
		seen = append(seen, e.EventKey())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	p := platform.NewPlayer("Alex")
	ctx := context.Background()
	bus.Fire(ctx, NewPlayerJoin(p, ""))
	bus.Fire(ctx, NewPlayerChat(p, "hi", ""))
	bus.Fire(ctx, NewSimple("unrelated", nil))

	want := []event.Key{KeyPlayerJoin, KeyPlayerChat}
	if !slices.Equal(seen, want) {
		t.Errorf("seen = %v, want %v", seen, want)
	}
}

func TestPlayerChatFormatted(t *testing.T) {
	p := platform.NewPlayer("Alex")
	e := NewPlayerChat(p, "hello", "")
	if got := e.Formatted(); got != "<Alex> hello" {
		t.Errorf("Formatted() = %q", got)
	}
	e.Format = "[%s] %s!"
	if got := e.Formatted(); got != "[Alex] hello!" {
		t.Errorf("Formatted() = %q", got)
	}
}

func TestSimpleEvents(t *testing.T) {
	s := NewSimple("custom.thing", 42)
	if s.EventKey() != "custom.thing" || s.EventName() != "custom.thing" {
		t.Errorf("key/name = %q/%q", s.EventKey(), s.EventName())
	}
	if v, ok := DataAs[int](s); !ok || v != 42 {
		t.Errorf("DataAs[int] = %v, %v", v, ok)
	}
	if _, ok := DataAs[string](s); ok {
		t.Error("DataAs with the wrong type should fail")
	}

	c := s.Cancellable()
	if c.EventName() != "custom.thing" || c.Data != 42 {
		t.Errorf("Cancellable() = %v", c)
	}
	c.SetCancelled(true)
	if !event.IsCancelled(c) {
		t.Error("CancellableSimple should cancel")
	}
	if v, ok := DataAs[int](c); !ok || v != 42 {
		t.Errorf("DataAs on cancellable = %v, %v", v, ok)
	}
}

func TestFields(t *testing.T) {
	p := platform.NewPlayer("Alex")
	chat := NewPlayerChat(p, "hi", "")

	if v, ok := chat.Field("player"); !ok || v != "Alex" {
		t.Errorf("Field(player) = %v, %v", v, ok)
	}
	if err := chat.SetField("message", "changed"); err != nil || chat.Message != "changed" {
		t.Errorf("SetField(message) = %v, Message = %q", err, chat.Message)
	}

	tests := []struct {
		name  string
		e     event.Fielded
		field string
		value any
		want  error
	}{
		{"read-only player", chat, "player", "Steve", ErrReadOnlyField},
		{"wrong type", chat, "message", 7, ErrFieldType},
		{"unknown", chat, "nope", "x", ErrUnknownField},
		{"move read-only", NewPlayerMove(p, platform.Position{}, platform.Orientation{}), "toX", 1.0, ErrReadOnlyField},
		{"plugin read-only", NewPluginEnable("demo", "1.0"), "plugin", "x", ErrReadOnlyField},
		{"scheduled data", NewScheduled("job", "* * * * *", time.Now(), nil), "data", "x", nil},
		{"quit message", NewPlayerQuit(p, ""), "quitMessage", "bye", nil},
		{"join message", NewPlayerJoin(p, ""), "joinMessage", "hello", nil},
		{"simple data", NewSimple("s", nil), "data", 1, nil},
		{"simple name", NewCancellableSimple("s", nil), "name", "t", ErrReadOnlyField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.e.SetField(tt.field, tt.value)
			if !errors.Is(err, tt.want) {
				t.Errorf("SetField(%q) = %v, want %v", tt.field, err, tt.want)
			}
			if tt.want == nil {
				if got, _ := tt.e.Field(tt.field); got != tt.value {
					t.Errorf("Field(%q) = %v, want %v", tt.field, got, tt.value)
				}
			}
		})
	}
}

func TestScheduledJobKey(t *testing.T) {
	bus := event.NewBus()
	var jobs []string
	_, err := event.On(bus, JobKey("backup"), func(ctx context.Context, e *Scheduled) error {
		jobs = append(jobs, e.Job)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	due := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	bus.Fire(context.Background(), NewScheduled("backup", "0 3 * * *", due, nil))
	bus.Fire(context.Background(), NewScheduled("cleanup", "0 4 * * *", due, nil))

	if !slices.Equal(jobs, []string{"backup"}) {
		t.Errorf("jobs = %v, want [backup]", jobs)
	}
	if bus.ListenerCount(KeyScheduled) != 0 {
		t.Error("job listeners should not count against the generic key")
	}
}

func TestJoinChatMoveQuit(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus()
	srv := platform.NewServer()
	srv.AddWorld(platform.NewWorld("world"))

	alex := platform.NewPlayer("Alex")
	steve := platform.NewPlayer("Steve")

	// Rewrite join messages, block chat containing "spam", block long moves.
	_, _ = event.On(bus, KeyPlayerJoin, func(ctx context.Context, e *PlayerJoin) error {
		e.JoinMessage = "Welcome " + e.Player().Name()
		return nil
	})
	_, _ = event.On(bus, KeyPlayerChat, func(ctx context.Context, e *PlayerChat) error {
		if e.Message == "spam" {
			e.SetCancelled(true)
		}
		return nil
	})
	_, _ = event.On(bus, KeyPlayerMove, func(ctx context.Context, e *PlayerMove) error {
		if e.Distance() > 100 {
			e.SetCancelled(true)
		}
		return nil
	})

	if _, err := Join(ctx, bus, srv, alex); err != nil {
		t.Fatal(err)
	}
	if _, err := Join(ctx, bus, srv, steve); err != nil {
		t.Fatal(err)
	}
	if _, err := Join(ctx, bus, srv, alex); err == nil {
		t.Error("joining twice should fail")
	}

	Chat(ctx, bus, srv, alex, "hello")
	if c := Chat(ctx, bus, srv, alex, "spam"); !c.IsCancelled() {
		t.Error("spam should be cancelled")
	}

	wantSteve := []string{"Welcome Steve", "<Alex> hello"}
	if got := steve.Messages(); !slices.Equal(got, wantSteve) {
		t.Errorf("steve messages = %v, want %v", got, wantSteve)
	}

	start := alex.Position()
	near := start.Add(3, 0, 4)
	Move(ctx, bus, alex, near, platform.Orientation{Yaw: 90})
	if alex.Position() != near || alex.Orientation().Yaw != 90 {
		t.Errorf("short move not applied: %v", alex.Position())
	}
	if m := Move(ctx, bus, alex, near.Add(500, 0, 0), platform.Orientation{}); !m.IsCancelled() {
		t.Error("long move should be cancelled")
	}
	if alex.Position() != near {
		t.Error("cancelled move must not change the position")
	}

	if _, err := Quit(ctx, bus, srv, "alex"); err != nil {
		t.Fatal(err)
	}
	if got := steve.Messages(); got[len(got)-1] != "Alex left the game" {
		t.Errorf("last steve message = %q", got[len(got)-1])
	}
	if _, err := Quit(ctx, bus, srv, "alex"); !errors.Is(err, platform.ErrNotOnline) {
		t.Errorf("second Quit error = %v", err)
	}
}
