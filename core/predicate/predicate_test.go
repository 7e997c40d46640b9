package predicate_test

import (
	"strings"
	"testing"

	"github.com/artpar/valigate/core/predicate"
)

func TestCompile_AllowedForms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		args   []any
		want   any
	}{
		{"arrow expression", "(value) => value > 10", []any{15.0}, true},
		{"arrow bare param", "value => value * 2", []any{21.0}, 42.0},
		{"arrow block body", "(value) => { return value < 0; }", []any{-1.0}, true},
		{"classic block", "(a, b) { return a + b; }", []any{1.0, 2.0}, 3.0},
		{"named function prefix", "function check(value) { return value != nil; }", []any{"x"}, true},
		{"zero params", "() => 7", nil, 7},
		{"strict equality normalized", "(value) => value === 'CASH'", []any{"CASH"}, true},
		{"strict inequality normalized", "(value) => value !== 'CASH'", []any{"CARD"}, true},
		{"multiline source", "(value) => {\n  return value > 0;\n}", []any{1.0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := predicate.Compile(tt.source)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.source, err)
			}
			got, err := p.Call(tt.args...)
			if err != nil {
				t.Fatalf("Call: %v", err)
			}
			if got != tt.want {
				t.Errorf("Call = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestCompile_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"bare expression", "value > 10"},
		{"infinite loop", "() => { while(true) {} }"},
		{"two statements", "(a) => { let x = a; return x; }"},
		{"no return", "(a) { a + 1; }"},
		{"statement after return", "(a) { return a; return a; }"},
		{"bad parameter", "(1a) => 1a"},
		{"unterminated block", "(a) => { return a;"},
		{"empty source", ""},
		{"call statement", "console.log('hi')"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := predicate.Compile(tt.source); err == nil {
				t.Errorf("Compile(%q) succeeded, want error", tt.source)
			}
		})
	}
}

func TestCanonicalSource(t *testing.T) {
	p, err := predicate.Compile("function f(value)   { return value >= 0; }")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := p.Source(); got != "(value) => value >= 0" {
		t.Errorf("Source = %q, want canonical arrow form", got)
	}
	if strings.Contains(p.Source(), "\n") {
		t.Error("canonical source contains a newline")
	}

	// Recompiling the canonical form must be a fixed point.
	again, err := predicate.Compile(p.Source())
	if err != nil {
		t.Fatalf("recompile canonical source: %v", err)
	}
	if again.Source() != p.Source() {
		t.Errorf("canonical source not stable: %q vs %q", again.Source(), p.Source())
	}
}

func TestCall_MissingArgsBindNil(t *testing.T) {
	p, err := predicate.Compile("(a, b) => b == nil")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err := p.Call("only-one")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != true {
		t.Errorf("missing argument did not bind to nil: got %v", got)
	}
}

func TestCall_RuntimeError(t *testing.T) {
	p, err := predicate.Compile("(value) => value.missing.deeper")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := p.Call("not-a-map"); err == nil {
		t.Error("Call on mismatched value succeeded, want error")
	}
}

func TestBool_Truthiness(t *testing.T) {
	p, err := predicate.Compile("(value) => value")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	tests := []struct {
		arg  any
		want bool
	}{
		{true, true},
		{false, false},
		{nil, false},
		{0.0, false},
		{1.0, true},
		{"", false},
		{"x", true},
		{[]any{}, true},
	}
	for _, tt := range tests {
		got, err := p.Bool(tt.arg)
		if err != nil {
			t.Fatalf("Bool(%v): %v", tt.arg, err)
		}
		if got != tt.want {
			t.Errorf("Bool(%v) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestParams(t *testing.T) {
	p, err := predicate.Compile("(value, other) => value > other")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	params := p.Params()
	if len(params) != 2 || params[0] != "value" || params[1] != "other" {
		t.Errorf("Params = %v, want [value other]", params)
	}
}
