// Package predicate compiles the restricted function sources embedded in
// validation models into callable programs.
//
// Exactly three surface forms are accepted, after internal newlines are
// collapsed and any leading "function" keyword and name are stripped:
//
//	(a, b) => expr          arrow, expression body
//	a => { return expr; }   arrow, block body
//	(a, b) { return expr; } classic, block body
//
// Block bodies are allow-listed to a single return statement. The
// expression body itself is compiled by expr-lang, so stored text can only
// ever become "a function with these parameters and this expression" -
// there is no statement execution and no module-scope evaluation.
package predicate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Predicate is a compiled model function: a parameter list and a single
// expression body. Immutable after Compile; safe for concurrent Call.
type Predicate struct {
	params  []string
	source  string
	program *vm.Program
}

var (
	wsRun      = regexp.MustCompile(`\s+`)
	funcPrefix = regexp.MustCompile(`^function(\s+[A-Za-z_$][A-Za-z0-9_$]*)?\s*`)
	arrowParen = regexp.MustCompile(`^\(([^()]*)\)\s*=>\s*(.+)$`)
	arrowBare  = regexp.MustCompile(`^([A-Za-z_$][A-Za-z0-9_$]*)\s*=>\s*(.+)$`)
	classic    = regexp.MustCompile(`^\(([^()]*)\)\s*\{(.*)\}$`)
	returnOnly = regexp.MustCompile(`^\s*return\s+(.+?)\s*;?\s*$`)
	identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

// Compile parses source and compiles its expression body. Any textual
// shape outside the allow-list is rejected.
func Compile(source string) (*Predicate, error) {
	src := wsRun.ReplaceAllString(strings.TrimSpace(source), " ")
	src = funcPrefix.ReplaceAllString(src, "")

	var rawParams, body string
	switch {
	case arrowParen.MatchString(src):
		m := arrowParen.FindStringSubmatch(src)
		rawParams, body = m[1], m[2]
	case arrowBare.MatchString(src):
		m := arrowBare.FindStringSubmatch(src)
		rawParams, body = m[1], m[2]
	case classic.MatchString(src):
		m := classic.FindStringSubmatch(src)
		rawParams = m[1]
		reduced, err := reduceBlock(m[2])
		if err != nil {
			return nil, fmt.Errorf("predicate %q: %w", source, err)
		}
		body = reduced
	default:
		return nil, fmt.Errorf("predicate %q: source does not match an allowed function form", source)
	}

	// Arrow bodies may still be blocks: (a) => { return a > 0; }
	if strings.HasPrefix(body, "{") {
		if !strings.HasSuffix(body, "}") {
			return nil, fmt.Errorf("predicate %q: unterminated block body", source)
		}
		inner, err := reduceBlock(body[1 : len(body)-1])
		if err != nil {
			return nil, fmt.Errorf("predicate %q: %w", source, err)
		}
		body = inner
	}

	params, err := parseParams(rawParams)
	if err != nil {
		return nil, fmt.Errorf("predicate %q: %w", source, err)
	}

	exprText := normalizeExpr(strings.TrimSuffix(strings.TrimSpace(body), ";"))
	program, err := expr.Compile(exprText,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("predicate %q: compile: %w", source, err)
	}

	return &Predicate{
		params:  params,
		source:  "(" + strings.Join(params, ", ") + ") => " + exprText,
		program: program,
	}, nil
}

// MustCompile is Compile for statically known sources; it panics on error.
func MustCompile(source string) *Predicate {
	p, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return p
}

// reduceBlock reduces a block body to its single allowed return expression.
func reduceBlock(block string) (string, error) {
	m := returnOnly.FindStringSubmatch(block)
	if m == nil {
		return "", fmt.Errorf("block body must be a single return statement")
	}
	stmt := m[1]
	if strings.Contains(stmt, ";") {
		return "", fmt.Errorf("block body must be a single return statement")
	}
	return stmt, nil
}

func parseParams(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	params := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if !identifier.MatchString(name) {
			return nil, fmt.Errorf("invalid parameter %q", name)
		}
		params = append(params, name)
	}
	return params, nil
}

// normalizeExpr maps strict-equality spellings onto the expression
// language. Applied textually; predicates comparing string literals that
// themselves contain these operators are out of scope of the grammar.
func normalizeExpr(s string) string {
	s = strings.ReplaceAll(s, "===", "==")
	s = strings.ReplaceAll(s, "!==", "!=")
	return s
}

// Call evaluates the predicate. Arguments bind positionally to the
// declared parameters; missing arguments bind to nil, extras are dropped.
func (p *Predicate) Call(args ...any) (any, error) {
	env := make(map[string]any, len(p.params))
	for i, name := range p.params {
		if i < len(args) {
			env[name] = args[i]
		} else {
			env[name] = nil
		}
	}
	out, err := expr.Run(p.program, env)
	if err != nil {
		return nil, fmt.Errorf("predicate %s: %w", p.source, err)
	}
	return out, nil
}

// Bool evaluates the predicate and coerces the result: booleans pass
// through, nil, zero numbers and empty strings are false, everything else
// is true.
func (p *Predicate) Bool(args ...any) (bool, error) {
	out, err := p.Call(args...)
	if err != nil {
		return false, err
	}
	return truthy(out), nil
}

// Source returns the canonical single-line source text.
func (p *Predicate) Source() string {
	return p.source
}

// Params returns the declared parameter names.
func (p *Predicate) Params() []string {
	return append([]string(nil), p.params...)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	default:
		return true
	}
}
