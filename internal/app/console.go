package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode"

	"github.com/chzyer/readline"
)

// LineReader is the console input. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// readLoop executes console lines until EOF, an interrupt on an empty
// line, or ctx is done.
func (app *Application) readLoop(ctx context.Context, in LineReader) error {
	for {
		line, err := in.Readline()
		if ctx.Err() != nil {
			return nil
		}
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				app.Stop()
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			app.Stop()
			return nil
		case err != nil:
			return err
		}
		app.Exec(ctx, strings.TrimSpace(line))
	}
}

// Completer adapts command completion to readline.
type Completer struct {
	app *Application
}

// Completer returns the readline tab completer for the console.
func (app *Application) Completer() *Completer {
	return &Completer{app: app}
}

// Do implements readline.AutoCompleter. Candidates are returned as the
// suffixes that extend the word under the cursor.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	head := string(line[:pos])
	word := head
	if i := strings.LastIndexFunc(head, unicode.IsSpace); i >= 0 {
		word = head[i+1:]
	} else {
		word = strings.TrimPrefix(word, c.app.commands.Prefix())
	}

	var out [][]rune
	for _, cand := range c.app.Complete(head) {
		if len(cand) < len(word) || !strings.EqualFold(cand[:len(word)], word) {
			continue
		}
		out = append(out, []rune(cand[len(word):]+" "))
	}
	return out, len([]rune(word))
}

var _ readline.AutoCompleter = (*Completer)(nil)
