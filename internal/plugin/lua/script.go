package lua

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/piston/internal/plugin"
)

// Extension is the file extension of script plugins.
const Extension = ".lua"

// Script is a plugin backed by one Lua source file. Each Enable starts a
// fresh interpreter.
type Script struct {
	path    string
	name    string
	version string
	source  string
	timeout time.Duration

	st *State
}

// ScriptOption configures a Script.
type ScriptOption func(*Script)

// WithTimeout sets the per-call execution timeout of the script.
func WithTimeout(d time.Duration) ScriptOption {
	return func(s *Script) {
		s.timeout = d
	}
}

// Load reads the script at path. The plugin name is the file name without
// its extension and the version comes from a leading "-- version: x"
// comment.
func Load(path string, opts ...ScriptOption) (*Script, error) {
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return nil, fmt.Errorf("%w: %s", ErrNotScript, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := NewScript(scriptName(path), string(data), opts...)
	s.path = path
	return s, nil
}

// NewScript creates a script plugin from source.
func NewScript(name, source string, opts ...ScriptOption) *Script {
	s := &Script{
		path:    name + Extension,
		name:    name,
		version: headerVersion(source),
		source:  source,
		timeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func scriptName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// headerVersion scans the leading comment block for "version:".
func headerVersion(source string) string {
	sc := bufio.NewScanner(strings.NewReader(source))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		key, val, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "--")), ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), "version") {
			return strings.TrimSpace(val)
		}
	}
	return "0.0.0"
}

// Name implements plugin.Plugin.
func (s *Script) Name() string { return s.name }

// Version implements plugin.Plugin.
func (s *Script) Version() string { return s.version }

// Path returns the file the script was loaded from.
func (s *Script) Path() string { return s.path }

// Enable implements plugin.Plugin. It runs the script body, which
// registers commands and listeners through the piston table.
func (s *Script) Enable(_ context.Context, pc *plugin.Context) error {
	st := NewState(WithExecutionTimeout(s.timeout))
	a := &api{st: st, pc: pc}
	a.install(st.L)
	s.st = st

	if err := st.DoString(filepath.Base(s.path), s.source); err != nil {
		st.Close()
		s.st = nil
		return fmt.Errorf("run %s: %w", s.name, err)
	}
	return nil
}

// Disable implements plugin.Plugin. It calls the script's on_disable
// function if one is defined.
func (s *Script) Disable(_ context.Context, _ *plugin.Context) error {
	if s.st == nil {
		return nil
	}
	err := s.st.CallGlobal("on_disable")
	s.st.Close()
	s.st = nil
	if err != nil {
		return fmt.Errorf("on_disable %s: %w", s.name, err)
	}
	return nil
}

var _ plugin.Plugin = (*Script)(nil)
