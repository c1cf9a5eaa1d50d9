package formula

import (
	"fmt"
	"sync"

	lua "github.com/Shopify/go-lua"
)

// Service resolves a stat formula against an entity context and returns a
// number. Formula contents are treated as trusted session content.
type Service interface {
	Evaluate(formula string, vars map[string]float64) (float64, error)
}

// LuaService evaluates formulas as Lua expressions with the context
// variables exposed as globals, e.g. "strength / 2 + 4".
type LuaService struct {
	mu    sync.Mutex
	state *lua.State
}

// NewLuaService creates a Lua-backed formula service.
func NewLuaService() *LuaService {
	state := lua.NewState()
	lua.OpenLibraries(state)
	return &LuaService{state: state}
}

// Evaluate runs the formula and returns its numeric result.
func (s *LuaService) Evaluate(formula string, vars map[string]float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, value := range vars {
		s.state.PushNumber(value)
		s.state.SetGlobal(name)
	}

	top := s.state.Top()
	if err := lua.DoString(s.state, "return "+formula); err != nil {
		s.state.SetTop(top)
		return 0, fmt.Errorf("failed to evaluate formula %q: %v", formula, err)
	}

	result, ok := s.state.ToNumber(-1)
	s.state.SetTop(top)
	if !ok {
		return 0, fmt.Errorf("formula %q did not return a number", formula)
	}
	return result, nil
}

// Func adapts a plain function to the Service interface, useful in tests.
type Func func(formula string, vars map[string]float64) (float64, error)

func (f Func) Evaluate(formula string, vars map[string]float64) (float64, error) {
	return f(formula, vars)
}
