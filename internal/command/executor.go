package command

import (
	"context"
	"strings"
)

// ExecutorFunc is a raw command body that receives the unparsed tokens.
type ExecutorFunc func(ctx context.Context, s Sender, label string, args []string) error

// ExecutorOption configures a command registered with RegisterExecutor.
type ExecutorOption func(*Spec)

// WithDescription sets the help text.
func WithDescription(desc string) ExecutorOption {
	return func(s *Spec) { s.Description = desc }
}

// WithUsage sets the usage line.
func WithUsage(usage string) ExecutorOption {
	return func(s *Spec) { s.Usage = usage }
}

// WithAliases adds alternative names.
func WithAliases(aliases ...string) ExecutorOption {
	return func(s *Spec) { s.Aliases = append(s.Aliases, aliases...) }
}

// WithPermission sets the required permission.
func WithPermission(node string) ExecutorOption {
	return func(s *Spec) { s.Permission = node }
}

// WithRestriction limits the sender type.
func WithRestriction(r SenderRestriction) ExecutorOption {
	return func(s *Spec) { s.Restriction = r }
}

// executorHandler adapts a raw executor to Handler.
type executorHandler struct {
	spec Spec
}

func (h *executorHandler) Commands() []Spec { return []Spec{h.spec} }

// RegisterExecutor registers a single command whose body receives the raw
// tokens after the label. The returned Handler unregisters it.
func (r *Registry) RegisterExecutor(name string, fn ExecutorFunc, opts ...ExecutorOption) (Handler, error) {
	h := &executorHandler{spec: Spec{
		Name: name,
		Args: []Arg{{Name: "args", Optional: true, Rest: true}},
	}}
	for _, opt := range opts {
		opt(&h.spec)
	}
	if fn != nil {
		h.spec.Run = func(ctx context.Context, s Sender, args Args) error {
			return fn(ctx, s, args.Label(), args.Raw())
		}
	}
	if h.spec.Usage == "" {
		h.spec.Usage = r.prefix + strings.TrimSpace(name)
	}
	if err := r.Register(h); err != nil {
		return nil, err
	}
	return h, nil
}
