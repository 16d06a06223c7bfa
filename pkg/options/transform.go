package options

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Transform post-processes a remote payload before it is decoded into options.
type Transform func(payload any) (any, error)

// IdentityTransform is registered under "identity" in every registry.
const IdentityTransform = "identity"

var (
	// ErrTransformNotFound is returned when a source names an unregistered
	// transform.
	ErrTransformNotFound = errors.New("options: transform not found")
	// ErrTransformExists is returned when registering a duplicate name.
	ErrTransformExists = errors.New("options: transform already registered")
)

// TransformRegistry maps transform names to implementations.
type TransformRegistry struct {
	mu         sync.RWMutex
	transforms map[string]Transform
}

// NewTransformRegistry returns a registry holding the identity transform.
func NewTransformRegistry() *TransformRegistry {
	r := &TransformRegistry{transforms: make(map[string]Transform)}
	r.transforms[IdentityTransform] = func(payload any) (any, error) { return payload, nil }
	return r
}

// Register adds a transform under name.
func (r *TransformRegistry) Register(name string, fn Transform) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("options: transform name is required")
	}
	if fn == nil {
		return fmt.Errorf("options: transform %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transforms[name]; exists {
		return fmt.Errorf("%w: %s", ErrTransformExists, name)
	}
	r.transforms[name] = fn
	return nil
}

// MustRegister panics when registration fails. Intended for init-time wiring.
func (r *TransformRegistry) MustRegister(name string, fn Transform) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// RegisterExpr compiles expression and registers it under name.
func (r *TransformRegistry) RegisterExpr(name, expression string) error {
	fn, err := ExprTransform(expression)
	if err != nil {
		return fmt.Errorf("options: transform %q: %w", name, err)
	}
	return r.Register(name, fn)
}

// Lookup returns the transform registered under name.
func (r *TransformRegistry) Lookup(name string) (Transform, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrTransformNotFound, name)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.transforms[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTransformNotFound, name)
	}
	return fn, nil
}

// Names lists registered transforms in lexical order.
func (r *TransformRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExprTransform compiles an expr-lang expression into a Transform. The
// expression sees the decoded response as `payload`, e.g.
//
//	map(payload.items, {{"value": #.id, "label": #.title}})
func ExprTransform(expression string) (Transform, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, errors.New("expression must not be empty")
	}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return exprProgram(program), nil
}

func exprProgram(program *vm.Program) Transform {
	return func(payload any) (any, error) {
		out, err := expr.Run(program, map[string]any{"payload": payload})
		if err != nil {
			return nil, fmt.Errorf("options: run transform: %w", err)
		}
		return out, nil
	}
}
