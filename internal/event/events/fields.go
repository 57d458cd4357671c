package events

import (
	"errors"
	"fmt"
)

// Field errors.
var (
	// ErrUnknownField is returned when setting a field the event lacks.
	ErrUnknownField = errors.New("unknown event field")

	// ErrReadOnlyField is returned when setting a field listeners may not change.
	ErrReadOnlyField = errors.New("read-only event field")

	// ErrFieldType is returned when a value has the wrong type for a field.
	ErrFieldType = errors.New("wrong type for event field")
)

func setString(dst *string, field string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: %s wants a string, got %T", ErrFieldType, field, v)
	}
	*dst = s
	return nil
}

func readOnly(field string) error {
	return fmt.Errorf("%w: %s", ErrReadOnlyField, field)
}

func unknown(field string) error {
	return fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// Field implements event.Fielded.
func (e *PlayerJoin) Field(name string) (any, bool) {
	switch name {
	case "player":
		return e.playerName(), true
	case "joinMessage":
		return e.JoinMessage, true
	}
	return nil, false
}

// SetField implements event.Fielded.
func (e *PlayerJoin) SetField(name string, v any) error {
	switch name {
	case "joinMessage":
		return setString(&e.JoinMessage, name, v)
	case "player":
		return readOnly(name)
	}
	return unknown(name)
}

// Field implements event.Fielded.
func (e *PlayerQuit) Field(name string) (any, bool) {
	switch name {
	case "player":
		return e.playerName(), true
	case "quitMessage":
		return e.QuitMessage, true
	}
	return nil, false
}

// SetField implements event.Fielded.
func (e *PlayerQuit) SetField(name string, v any) error {
	switch name {
	case "quitMessage":
		return setString(&e.QuitMessage, name, v)
	case "player":
		return readOnly(name)
	}
	return unknown(name)
}

// Field implements event.Fielded.
func (e *PlayerChat) Field(name string) (any, bool) {
	switch name {
	case "player":
		return e.playerName(), true
	case "message":
		return e.Message, true
	case "format":
		return e.Format, true
	}
	return nil, false
}

// SetField implements event.Fielded.
func (e *PlayerChat) SetField(name string, v any) error {
	switch name {
	case "message":
		return setString(&e.Message, name, v)
	case "format":
		return setString(&e.Format, name, v)
	case "player":
		return readOnly(name)
	}
	return unknown(name)
}

// Field implements event.Fielded.
func (e *PlayerMove) Field(name string) (any, bool) {
	switch name {
	case "player":
		return e.playerName(), true
	case "world":
		return e.To.World, true
	case "fromX":
		return e.From.X, true
	case "fromY":
		return e.From.Y, true
	case "fromZ":
		return e.From.Z, true
	case "toX":
		return e.To.X, true
	case "toY":
		return e.To.Y, true
	case "toZ":
		return e.To.Z, true
	case "distance":
		return e.Distance(), true
	}
	return nil, false
}

// SetField implements event.Fielded. Every move field is read-only;
// listeners cancel instead.
func (e *PlayerMove) SetField(name string, v any) error {
	if _, ok := e.Field(name); ok {
		return readOnly(name)
	}
	return unknown(name)
}

// Field implements event.Fielded.
func (e *Simple) Field(name string) (any, bool) {
	switch name {
	case "name":
		return e.EventName(), true
	case "data":
		return e.Data, true
	}
	return nil, false
}

// SetField implements event.Fielded.
func (e *Simple) SetField(name string, v any) error {
	switch name {
	case "data":
		e.Data = v
		return nil
	case "name":
		return readOnly(name)
	}
	return unknown(name)
}

// Field implements event.Fielded.
func (e *CancellableSimple) Field(name string) (any, bool) {
	switch name {
	case "name":
		return e.EventName(), true
	case "data":
		return e.Data, true
	}
	return nil, false
}

// SetField implements event.Fielded.
func (e *CancellableSimple) SetField(name string, v any) error {
	switch name {
	case "data":
		e.Data = v
		return nil
	case "name":
		return readOnly(name)
	}
	return unknown(name)
}

// Field implements event.Fielded.
func (e *PluginEnable) Field(name string) (any, bool) {
	return pluginField(e.Plugin, e.Version, name)
}

// SetField implements event.Fielded.
func (e *PluginEnable) SetField(name string, _ any) error {
	return pluginSetField(name)
}

// Field implements event.Fielded.
func (e *PluginDisable) Field(name string) (any, bool) {
	return pluginField(e.Plugin, e.Version, name)
}

// SetField implements event.Fielded.
func (e *PluginDisable) SetField(name string, _ any) error {
	return pluginSetField(name)
}

func pluginField(plugin, version, name string) (any, bool) {
	switch name {
	case "plugin":
		return plugin, true
	case "version":
		return version, true
	}
	return nil, false
}

func pluginSetField(name string) error {
	if name == "plugin" || name == "version" {
		return readOnly(name)
	}
	return unknown(name)
}

// Field implements event.Fielded.
func (e *Scheduled) Field(name string) (any, bool) {
	switch name {
	case "job":
		return e.Job, true
	case "expression":
		return e.Expression, true
	case "due":
		return e.Due.Unix(), true
	case "data":
		return e.Data, true
	}
	return nil, false
}

// SetField implements event.Fielded.
func (e *Scheduled) SetField(name string, v any) error {
	switch name {
	case "data":
		e.Data = v
		return nil
	case "job", "expression", "due":
		return readOnly(name)
	}
	return unknown(name)
}
