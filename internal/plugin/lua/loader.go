package lua

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadDir loads every .lua file directly inside dir, sorted by name. A
// missing directory yields no scripts. Files that fail to load are
// reported in the joined error; the rest are still returned.
func LoadDir(dir string, opts ...ScriptOption) ([]*Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		scripts []*Script
		errs    []error
	)
	for _, e := range entries {
		if e.IsDir() || !isScript(e.Name()) {
			continue
		}
		s, err := Load(filepath.Join(dir, e.Name()), opts...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scripts = append(scripts, s)
	}
	return scripts, errors.Join(errs...)
}

func isScript(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), Extension)
}
