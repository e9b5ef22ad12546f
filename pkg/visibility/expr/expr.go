// Package expr is a small rule language for field visibility in definition
// files.
//
//	country == "FR" && !company
//	age >= 18 || guardian.name != ""
//
// Identifiers are dotted value paths; literals are strings, numbers, true,
// false and null. Operators: == != < <= > >= && || ! and parentheses
// (and/or/not are accepted as words). A bare identifier tests truthiness.
package expr

import (
	"strings"
	"sync"
)

// Program is a compiled rule. It satisfies model.Visibility.
type Program struct {
	source string
	root   node
}

// Compile parses rule. An empty rule compiles to an always-visible program.
func Compile(rule string) (*Program, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return &Program{}, nil
	}
	tokens, err := lex(trimmed)
	if err != nil {
		return nil, err
	}
	root, err := parse(tokens)
	if err != nil {
		return nil, err
	}
	return &Program{source: trimmed, root: root}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(rule string) *Program {
	p, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return p
}

// Visible evaluates the program against values.
func (p *Program) Visible(values map[string]any) bool {
	if p == nil || p.root == nil {
		return true
	}
	return p.root.eval(values)
}

func (p *Program) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

// Evaluator compiles rules on first use and caches the programs. It
// satisfies visibility.Evaluator.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*Program
}

func New() *Evaluator {
	return &Evaluator{programs: make(map[string]*Program)}
}

func (e *Evaluator) Eval(rule string, values map[string]any) (bool, error) {
	e.mu.RLock()
	program, ok := e.programs[rule]
	e.mu.RUnlock()
	if !ok {
		compiled, err := Compile(rule)
		if err != nil {
			return false, err
		}
		e.mu.Lock()
		e.programs[rule] = compiled
		e.mu.Unlock()
		program = compiled
	}
	return program.Visible(values), nil
}
