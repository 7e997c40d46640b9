package paths_test

import (
	"reflect"
	"testing"

	"github.com/artpar/valigate/core/paths"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a", []string{"a"}},
		{"a.b.c", []string{"a", "b", "c"}},
		{"items[2].name", []string{"items", "2", "name"}},
		{"items.2.name", []string{"items", "2", "name"}},
		{"a[0][1]", []string{"a", "0", "1"}},
		{"a[bad", []string{"a[bad"}},
	}
	for _, tt := range tests {
		if got := paths.Tokenize(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	doc := map[string]any{
		"order": map[string]any{
			"total": 1500.0,
			"items": []any{
				map[string]any{"sku": "A-1"},
				map[string]any{"sku": "B-2"},
			},
		},
		"empty": nil,
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"order.total", 1500.0, true},
		{"order.items[1].sku", "B-2", true},
		{"order.items.0.sku", "A-1", true},
		{"order.missing", nil, false},
		{"order.items[9].sku", nil, false},
		{"empty.anything", nil, false},
		{"order.total.deeper", nil, false},
	}
	for _, tt := range tests {
		got, ok := paths.Resolve(doc, tt.path)
		if ok != tt.wantOK || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Resolve(%q) = (%v, %v), want (%v, %v)", tt.path, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := paths.Join("", "a"); got != "a" {
		t.Errorf("Join with empty prefix = %q, want a", got)
	}
	if got := paths.Join("a.b", "c"); got != "a.b.c" {
		t.Errorf("Join = %q, want a.b.c", got)
	}
}
