// Package hooks runs user-supplied Lua that reshapes a request payload
// before it is staged.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// ErrTimeout is returned when the script exceeds its time budget.
var ErrTimeout = errors.New("payload hook: timeout")

// ApplyPayloadHook evaluates code with the global `payload` bound to a copy
// of p and returns the resulting table. Code that compiles as a single
// expression is evaluated as one; anything else runs as a chunk. A chunk
// that returns nothing yields the (possibly mutated) global payload. An
// empty code string returns p as is.
func ApplyPayloadHook(ctx context.Context, code string, timeout time.Duration, p map[string]any) (map[string]any, error) {
	if strings.TrimSpace(code) == "" {
		return p, nil
	}
	L := newSandboxState()
	defer L.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	L.SetContext(ctx)

	L.SetGlobal("payload", toLValue(L, p))

	fn, err := compileHook(L, code)
	if err != nil {
		return nil, fmt.Errorf("payload hook: %v", err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("payload hook: %v", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	if ret == lua.LNil {
		ret = L.GetGlobal("payload")
	}
	if ret.Type() != lua.LTTable {
		return nil, fmt.Errorf("payload hook: expected table result, got %s", ret.Type())
	}
	switch out := fromLValue(ret).(type) {
	case map[string]any:
		return out, nil
	case []any:
		if len(out) == 0 {
			return map[string]any{}, nil
		}
		return nil, errors.New("payload hook: expected table with string keys, got array")
	default:
		return nil, errors.New("payload hook: unexpected result")
	}
}

// newSandboxState opens only the base, string, table and math libraries.
// os, io and package are never loaded.
func newSandboxState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openLib := func(name string, f lua.LGFunction) {
		L.Push(L.NewFunction(f))
		L.Push(lua.LString(name))
		L.Call(1, 0)
	}
	openLib(lua.BaseLibName, lua.OpenBase)
	openLib(lua.StringLibName, lua.OpenString)
	openLib(lua.TabLibName, lua.OpenTable)
	openLib(lua.MathLibName, lua.OpenMath)
	// base lib exposes file loaders
	for _, name := range []string{"dofile", "loadfile", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// compileHook tries code as an expression first, then as a chunk. A chunk
// error is the one reported.
func compileHook(L *lua.LState, code string) (*lua.LFunction, error) {
	if fn, err := L.LoadString("return (" + code + "\n)"); err == nil {
		return fn, nil
	}
	return L.LoadString(code)
}
