package automation

import (
	"errors"
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
)

const scriptFunc = "intensity"

// Script evaluates a Lua function intensity(t). The script also sees the
// helpers clamp(x, lo, hi), ramp(t, t0, t1) and smoothstep(t, t0, t1).
// A Script is not safe for concurrent use.
type Script struct {
	L    *lua.LState
	fn   lua.LValue
	last float64
	err  error
}

// NewScript compiles src.
func NewScript(src string) (*Script, error) {
	return newScript(func(L *lua.LState) error { return L.DoString(src) })
}

// LoadScript compiles the file at path.
func LoadScript(path string) (*Script, error) {
	return newScript(func(L *lua.LState) error { return L.DoFile(path) })
}

func newScript(load func(*lua.LState) error) (*Script, error) {
	L := lua.NewState()
	registerHelpers(L)
	if err := load(L); err != nil {
		L.Close()
		return nil, fmt.Errorf("load intensity script: %w", err)
	}
	fn := L.GetGlobal(scriptFunc)
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, errors.New("intensity script must define function intensity(t)")
	}
	return &Script{L: L, fn: fn}, nil
}

// Intensity calls intensity(t). On a runtime error or a non-numeric result
// it returns the previous value and records the error.
func (s *Script) Intensity(t float64) float64 {
	if err := s.L.CallByParam(lua.P{Fn: s.fn, NRet: 1, Protect: true}, lua.LNumber(t)); err != nil {
		s.err = err
		return s.last
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok || math.IsNaN(float64(n)) {
		s.err = fmt.Errorf("intensity(%g) returned %s, want number", t, ret.Type())
		return s.last
	}
	s.last = float64(n)
	return s.last
}

// Err returns the most recent evaluation error.
func (s *Script) Err() error { return s.err }

// Close releases the Lua state.
func (s *Script) Close() { s.L.Close() }

func registerHelpers(L *lua.LState) {
	L.SetGlobal("clamp", L.NewFunction(func(L *lua.LState) int {
		x, lo, hi := float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3))
		L.Push(lua.LNumber(math.Min(hi, math.Max(lo, x))))
		return 1
	}))
	L.SetGlobal("ramp", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(ramp(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))))
		return 1
	}))
	L.SetGlobal("smoothstep", L.NewFunction(func(L *lua.LState) int {
		u := ramp(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
		L.Push(lua.LNumber(u * u * (3 - 2*u)))
		return 1
	}))
}

// ramp is 0 before t0, 1 after t1 and linear between.
func ramp(t, t0, t1 float64) float64 {
	if t1 <= t0 {
		if t < t0 {
			return 0
		}
		return 1
	}
	return math.Min(1, math.Max(0, (t-t0)/(t1-t0)))
}
