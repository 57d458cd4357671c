package lua

import (
	"errors"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"
)

func TestStateSandbox(t *testing.T) {
	st := NewState()
	defer st.Close()

	for _, name := range []string{"os", "io", "debug", "require", "dofile", "loadfile", "load", "loadstring"} {
		t.Run(name, func(t *testing.T) {
			if v := st.L.GetGlobal(name); v != lua.LNil {
				t.Errorf("global %s = %v, want nil", name, v.Type())
			}
		})
	}
	for _, name := range []string{"string", "table", "math", "pairs"} {
		if v := st.L.GetGlobal(name); v == lua.LNil {
			t.Errorf("global %s missing", name)
		}
	}
}

func TestStateDoStringError(t *testing.T) {
	st := NewState()
	defer st.Close()

	tests := []struct {
		name string
		code string
		want string
	}{
		{"runtime", `error("boom")`, "boom"},
		{"syntax", `local = 1`, "chunk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := st.DoString("chunk", tt.code)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
			if strings.Contains(err.Error(), "stack traceback") {
				t.Errorf("error should not carry a traceback: %q", err)
			}
		})
	}
}

func TestStateTimeout(t *testing.T) {
	st := NewState(WithExecutionTimeout(50 * time.Millisecond))
	defer st.Close()

	start := time.Now()
	err := st.DoString("loop", `while true do end`)
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Fatalf("error = %v, want ErrExecutionTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}

	if err := st.DoString("after", `x = 1`); err != nil {
		t.Errorf("state should stay usable after a timeout: %v", err)
	}
}

func TestStateCall(t *testing.T) {
	st := NewState()
	defer st.Close()

	if err := st.DoString("defs", `function add(a, b) return a + b, "ok" end`); err != nil {
		t.Fatal(err)
	}
	results, err := st.Call(st.L.GetGlobal("add"), lua.LNumber(2), lua.LNumber(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0] != lua.LNumber(5) || results[1] != lua.LString("ok") {
		t.Errorf("results = %v", results)
	}

	if _, err := st.Call(lua.LString("nope")); err == nil {
		t.Error("calling a non-function should fail")
	}
	if err := st.CallGlobal("missing"); err != nil {
		t.Errorf("missing global should be ignored, got %v", err)
	}
}

func TestStateClosed(t *testing.T) {
	st := NewState()
	st.Close()
	st.Close()

	if err := st.DoString("x", "return 1"); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString error = %v, want ErrStateClosed", err)
	}
	if _, err := st.Call(lua.LNil); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Call error = %v, want ErrStateClosed", err)
	}
	if err := st.CallGlobal("anything"); err != nil {
		t.Errorf("CallGlobal on closed state = %v, want nil", err)
	}
}

func TestConvert(t *testing.T) {
	st := NewState()
	defer st.Close()

	in := map[string]any{
		"name":  "steve",
		"level": 3,
		"ratio": 0.5,
		"ok":    true,
		"tags":  []string{"a", "b"},
		"inner": map[string]any{"x": 1},
	}
	got, ok := fromLua(toLua(st.L, in)).(map[string]any)
	if !ok {
		t.Fatalf("fromLua returned %T", got)
	}
	if got["name"] != "steve" || got["level"] != 3 || got["ratio"] != 0.5 || got["ok"] != true {
		t.Errorf("scalars = %v", got)
	}
	tags, _ := got["tags"].([]any)
	if len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("tags = %v", got["tags"])
	}
	inner, _ := got["inner"].(map[string]any)
	if inner["x"] != 1 {
		t.Errorf("inner = %v", got["inner"])
	}

	if got := fromLua(st.L.NewTable()); len(got.(map[string]any)) != 0 {
		t.Errorf("empty table = %v", got)
	}
	if got := stringList(lua.LString("one")); len(got) != 1 || got[0] != "one" {
		t.Errorf("stringList(string) = %v", got)
	}
}
