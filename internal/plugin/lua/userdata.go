package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/piston/internal/command"
	"github.com/dshills/piston/internal/event"
)

const (
	senderType = "piston.sender"
	eventType  = "piston.event"
)

var senderMethods = map[string]lua.LGFunction{
	"name": func(L *lua.LState) int {
		L.Push(lua.LString(checkSender(L).Name()))
		return 1
	},
	"send": func(L *lua.LState) int {
		checkSender(L).SendMessage(L.CheckString(2))
		return 0
	},
	"has_permission": func(L *lua.LState) int {
		L.Push(lua.LBool(checkSender(L).HasPermission(L.CheckString(2))))
		return 1
	},
	"is_console": func(L *lua.LState) int {
		L.Push(lua.LBool(command.IsConsole(checkSender(L))))
		return 1
	},
}

var eventMethods = map[string]lua.LGFunction{
	"name": func(L *lua.LState) int {
		L.Push(lua.LString(event.Name(checkEvent(L))))
		return 1
	},
	"key": func(L *lua.LState) int {
		L.Push(lua.LString(checkEvent(L).EventKey()))
		return 1
	},
	"timestamp": func(L *lua.LState) int {
		L.Push(lua.LNumber(checkEvent(L).Timestamp().UnixMilli()))
		return 1
	},
	"cancellable": func(L *lua.LState) int {
		_, ok := checkEvent(L).(event.Cancellable)
		L.Push(lua.LBool(ok))
		return 1
	},
	"is_cancelled": func(L *lua.LState) int {
		L.Push(lua.LBool(event.IsCancelled(checkEvent(L))))
		return 1
	},
	"cancel": func(L *lua.LState) int {
		setCancelled(L, true)
		return 0
	},
	"set_cancelled": func(L *lua.LState) int {
		setCancelled(L, L.OptBool(2, true))
		return 0
	},
}

func setCancelled(L *lua.LState, v bool) {
	c, ok := checkEvent(L).(event.Cancellable)
	if !ok {
		L.RaiseError("event %s is not cancellable", event.Name(checkEvent(L)))
		return
	}
	c.SetCancelled(v)
}

func registerTypes(L *lua.LState) {
	smt := L.NewTypeMetatable(senderType)
	L.SetField(smt, "__index", L.SetFuncs(L.NewTable(), senderMethods))
	L.SetField(smt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkSender(L).Name()))
		return 1
	}))

	emt := L.NewTypeMetatable(eventType)
	L.SetField(emt, "__index", L.NewFunction(eventIndex))
	L.SetField(emt, "__newindex", L.NewFunction(eventNewIndex))
	L.SetField(emt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(event.Name(checkEvent(L))))
		return 1
	}))
}

func newSender(L *lua.LState, s command.Sender) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = s
	L.SetMetatable(ud, L.GetTypeMetatable(senderType))
	return ud
}

func newEvent(L *lua.LState, e event.Event) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = e
	L.SetMetatable(ud, L.GetTypeMetatable(eventType))
	return ud
}

func checkSender(L *lua.LState) command.Sender {
	ud := L.CheckUserData(1)
	s, ok := ud.Value.(command.Sender)
	if !ok {
		L.ArgError(1, "sender expected")
	}
	return s
}

func checkEvent(L *lua.LState) event.Event {
	ud := L.CheckUserData(1)
	e, ok := ud.Value.(event.Event)
	if !ok {
		L.ArgError(1, "event expected")
	}
	return e
}

// eventIndex resolves e.field and e:method().
func eventIndex(L *lua.LState) int {
	e := checkEvent(L)
	key := L.CheckString(2)
	if fn, ok := eventMethods[key]; ok {
		L.Push(L.NewFunction(fn))
		return 1
	}
	if f, ok := e.(event.Fielded); ok {
		if v, ok := f.Field(key); ok {
			L.Push(toLua(L, v))
			return 1
		}
	}
	L.Push(lua.LNil)
	return 1
}

// eventNewIndex assigns e.field = value through event.Fielded.
func eventNewIndex(L *lua.LState) int {
	e := checkEvent(L)
	key := L.CheckString(2)
	f, ok := e.(event.Fielded)
	if !ok {
		L.RaiseError("event %s has no settable fields", event.Name(e))
		return 0
	}
	if err := f.SetField(key, fromLua(L.CheckAny(3))); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}
