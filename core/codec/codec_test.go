package codec_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/artpar/valigate/core/codec"
	"github.com/artpar/valigate/core/predicate"
	"github.com/artpar/valigate/core/validate"
	"github.com/artpar/valigate/domain/model"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func sampleModel() *model.Model {
	return &model.Model{Fields: []model.Field{
		{Name: "name", Rule: &model.Rule{Type: model.TypeString, MinLength: iptr(1), MaxLength: iptr(50)}},
		{Name: "email", Rule: &model.Rule{Type: model.TypeEmail}},
		{Name: "age", Rule: &model.Rule{Type: model.TypeNumber, Min: fptr(0), Max: fptr(150), Integer: true, Optional: true}},
		{Name: "price", Rule: &model.Rule{Type: model.TypeNumber, Decimal: true, Decimals: iptr(2)}},
		{Name: "status", Rule: &model.Rule{Type: model.TypeString, Default: "OPEN", Values: []any{"OPEN", "CLOSED"}}},
		{Name: "retries", Rule: &model.Rule{Type: model.TypeNumber, Default: predicate.MustCompile("() => 3"), Optional: false}},
		{Name: "tags", Rule: &model.Rule{Type: model.TypeList, Element: model.TypeString, Optional: true}},
		{Name: "scores", Rule: &model.Rule{
			Type:  model.TypeList,
			Items: &model.Rule{Type: model.TypeNumber, Min: fptr(0)},
		}},
		{Name: "address", Rule: &model.Rule{Type: model.TypeMap, Fields: []model.Field{
			{Name: "city", Rule: &model.Rule{Type: model.TypeString}},
			{Name: "zip", Rule: &model.Rule{Type: model.TypeString, Pattern: `^\d{5}$`, Message: "Zip must be five digits"}},
		}}},
		{Name: "even", Rule: &model.Rule{
			Type:     model.TypeNumber,
			Optional: true,
			Validate: predicate.MustCompile("(value) => value % 2 == 0"),
			Message:  "Must be even",
		}},
		{Name: "card", Rule: &model.Rule{
			Type:     model.TypeString,
			Optional: true,
			DependsOn: []model.Dependency{{
				Field:     "status",
				Condition: predicate.MustCompile("(value) => value == 'OPEN'"),
				Validate:  predicate.MustCompile("(value, other) => value != nil"),
				Message:   "Card required while open",
			}},
		}},
	}}
}

func TestRoundTrip(t *testing.T) {
	original := sampleModel()
	blob, err := codec.Serialize(original)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	rebuilt, err := codec.Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	// Field order survives.
	if len(rebuilt.Fields) != len(original.Fields) {
		t.Fatalf("field count %d, want %d", len(rebuilt.Fields), len(original.Fields))
	}
	for i := range original.Fields {
		if rebuilt.Fields[i].Name != original.Fields[i].Name {
			t.Errorf("field %d = %q, want %q", i, rebuilt.Fields[i].Name, original.Fields[i].Name)
		}
	}

	// A second round trip is byte-identical: the canonical form is a
	// fixed point.
	blob2, err := codec.Serialize(rebuilt)
	if err != nil {
		t.Fatalf("Serialize(rebuilt): %v", err)
	}
	if blob != blob2 {
		t.Errorf("round trip not stable:\n%s\n%s", blob, blob2)
	}
}

func TestRoundTrip_BehaviorPreserved(t *testing.T) {
	blob, err := codec.Serialize(sampleModel())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	rebuilt, err := codec.Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	engine := validate.New(validate.Options{})

	good := map[string]any{
		"name":   "Ada",
		"email":  "ada@example.com",
		"price":  19.99,
		"scores": []any{10.0, 20.0},
		"address": map[string]any{
			"city": "Paris",
			"zip":  "75001",
		},
		"card": "4111",
	}
	if r := engine.Validate(good, rebuilt); !r.Valid {
		t.Fatalf("rebuilt model rejected good data: %v", r.Errors)
	} else {
		// Both defaults were applied, including the function default.
		if r.Data["status"] != "OPEN" {
			t.Errorf("status default = %v", r.Data["status"])
		}
		if n, ok := model.ToNumber(r.Data["retries"]); !ok || n != 3 {
			t.Errorf("retries default = %v", r.Data["retries"])
		}
	}

	bad := map[string]any{
		"name":   "Ada",
		"email":  "not-an-email",
		"price":  19.999,
		"scores": []any{-5.0},
		"address": map[string]any{
			"city": "Paris",
			"zip":  "abc",
		},
	}
	r := engine.Validate(bad, rebuilt)
	if r.Valid {
		t.Fatal("rebuilt model accepted bad data")
	}
	wantFields := map[string]bool{
		"email": true, "price": true, "scores[0]": true, "address.zip": true, "card": true,
	}
	for _, e := range r.Errors {
		if !wantFields[e.Field] {
			t.Errorf("unexpected error field %q: %s", e.Field, e.Message)
		}
		delete(wantFields, e.Field)
	}
	for f := range wantFields {
		t.Errorf("missing error for %q", f)
	}
}

func TestSerialize_FunctionRecordShape(t *testing.T) {
	m := &model.Model{Fields: []model.Field{
		{Name: "v", Rule: &model.Rule{
			Type:     model.TypeNumber,
			Validate: predicate.MustCompile("(value) => {\n  return value > 0;\n}"),
		}},
	}}
	blob, err := codec.Serialize(m)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(blob), &doc); err != nil {
		t.Fatalf("serialized blob is not valid JSON: %v", err)
	}
	rule := doc["v"].(map[string]any)
	record, ok := rule["validate"].(map[string]any)
	if !ok {
		t.Fatalf("validate is not an object: %v", rule["validate"])
	}
	if record["marker"] != "function" {
		t.Errorf("marker = %v", record["marker"])
	}
	src, _ := record["sourceText"].(string)
	if src != "(value) => value > 0" {
		t.Errorf("sourceText = %q", src)
	}
	if strings.Contains(src, "\n") {
		t.Error("sourceText contains a newline")
	}
}

func TestDeserialize_TypeShorthand(t *testing.T) {
	m, err := codec.Deserialize(`{"name":"S","tags":{"type":"L<N>","optional":true}}`)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	name := m.Field("name")
	if name == nil || name.Type != model.TypeString {
		t.Errorf("shorthand rule = %+v", name)
	}
	tags := m.Field("tags")
	if tags == nil || tags.Type != model.TypeList || tags.Element != model.TypeNumber || !tags.Optional {
		t.Errorf("composite rule = %+v", tags)
	}
}

func TestDeserialize_DependsOnNormalization(t *testing.T) {
	cond := `{"marker":"function","sourceText":"(value) => value == 'CARD'"}`
	valid := `{"marker":"function","sourceText":"(value) => value != nil"}`

	// Single-entry object form normalizes to a one-element list.
	single := `{"method":"S","card":{"type":"S","optional":true,` +
		`"dependsOn":{"field":"method","condition":` + cond + `,"validate":` + valid + `}}}`
	m, err := codec.Deserialize(single)
	if err != nil {
		t.Fatalf("Deserialize single form: %v", err)
	}
	card := m.Field("card")
	if len(card.DependsOn) != 1 || card.DependsOn[0].Field != "method" {
		t.Fatalf("dependsOn = %+v", card.DependsOn)
	}

	// The wire form always carries the list.
	blob, err := codec.Serialize(m)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !strings.Contains(blob, `"dependsOn":[{`) {
		t.Errorf("serialized dependsOn is not a list: %s", blob)
	}
}

func TestDeserialize_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		wantErr string
	}{
		{"not json", `{"a":`, "deserialize"},
		{"not an object", `[1,2]`, "model must be a JSON object"},
		{"trailing data", `{"a":"S"} {}`, "trailing data"},
		{"unknown tag", `{"a":"Z"}`, `unknown type tag "Z"`},
		{"unknown rule key", `{"a":{"type":"S","bogus":1}}`, `unknown rule key "bogus"`},
		{"bare function source", `{"a":{"type":"S","validate":"(v) => v"}}`, "expected a function record"},
		{"loop in function", `{"a":{"type":"S","validate":{"marker":"function","sourceText":"() => { while(true) {} }"}}}`, "single return statement"},
		{"bare loop source", `{"a":{"type":"S","validate":{"marker":"function","sourceText":"while(true){}"}}}`, "allowed function form"},
		{"dependency missing field", `{"a":{"type":"S","dependsOn":{"condition":{"marker":"function","sourceText":"(v) => true"},"validate":{"marker":"function","sourceText":"(v) => true"}}}}`, "missing its field"},
		{"dependency unknown key", `{"a":{"type":"S","dependsOn":{"field":"b","bogus":1}}}`, `unknown key "bogus"`},
		{"structurally invalid", `{"a":{"type":"N","min":9,"max":1}}`, "rebuilt model is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Deserialize(tt.blob)
			if err == nil {
				t.Fatalf("Deserialize(%s) succeeded, want error", tt.blob)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSerialize_NilModel(t *testing.T) {
	if _, err := codec.Serialize(nil); err == nil {
		t.Error("Serialize(nil) succeeded, want error")
	}
}
