package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/artpar/valigate/core/predicate"
	"github.com/artpar/valigate/domain/model"
)

// ordered is a JSON object with key order preserved.
type ordered []keyValue

type keyValue struct {
	key   string
	value any
}

func (o ordered) get(key string) (any, bool) {
	for _, kv := range o {
		if kv.key == key {
			return kv.value, true
		}
	}
	return nil, false
}

// decodeOrdered parses a JSON document keeping object key order. Values
// are ordered (objects), []any (arrays), json.Number, string, bool or nil.
func decodeOrdered(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after model document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var obj ordered
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, keyValue{key: key, value: val})
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			if obj == nil {
				obj = ordered{}
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return tok, nil
	}
}

// buildRule turns a decoded wire value into a Rule. A bare string is the
// type-tag shorthand; an object is a full rule.
func buildRule(path string, v any) (*model.Rule, error) {
	switch node := v.(type) {
	case string:
		tag, element, ok := model.ParseTag(node)
		if !ok {
			return nil, fmt.Errorf("%s: unknown type tag %q", path, node)
		}
		return &model.Rule{Type: tag, Element: element}, nil
	case ordered:
		return buildRuleObject(path, node)
	default:
		return nil, fmt.Errorf("%s: rule must be a type tag or an object", path)
	}
}

func buildRuleObject(path string, obj ordered) (*model.Rule, error) {
	rule := &model.Rule{}
	for _, kv := range obj {
		var err error
		switch kv.key {
		case "type":
			s, ok := kv.value.(string)
			if !ok {
				return nil, fmt.Errorf("%s: type must be a string", path)
			}
			tag, element, parsed := model.ParseTag(s)
			if !parsed {
				return nil, fmt.Errorf("%s: unknown type tag %q", path, s)
			}
			rule.Type, rule.Element = tag, element
		case "optional":
			rule.Optional, err = toBool(path, kv.key, kv.value)
		case "default":
			rule.Default, err = buildDefault(path, kv.value)
		case "min":
			rule.Min, err = toFloatPtr(path, kv.key, kv.value)
		case "max":
			rule.Max, err = toFloatPtr(path, kv.key, kv.value)
		case "integer":
			rule.Integer, err = toBool(path, kv.key, kv.value)
		case "decimal":
			rule.Decimal, err = toBool(path, kv.key, kv.value)
		case "decimals":
			rule.Decimals, err = toIntPtr(path, kv.key, kv.value)
		case "minLength":
			rule.MinLength, err = toIntPtr(path, kv.key, kv.value)
		case "maxLength":
			rule.MaxLength, err = toIntPtr(path, kv.key, kv.value)
		case "pattern":
			rule.Pattern, err = toString(path, kv.key, kv.value)
		case "message":
			rule.Message, err = toString(path, kv.key, kv.value)
		case "values":
			arr, ok := kv.value.([]any)
			if !ok {
				return nil, fmt.Errorf("%s: values must be a list", path)
			}
			rule.Values = toPlainSlice(arr)
		case "validate":
			rule.Validate, err = buildFunction(path+".validate", kv.value)
		case "dependsOn":
			rule.DependsOn, err = buildDependencies(path, kv.value)
		case "fields":
			sub, ok := kv.value.(ordered)
			if !ok {
				return nil, fmt.Errorf("%s: fields must be an object", path)
			}
			rule.Fields = make([]model.Field, 0, len(sub))
			for _, f := range sub {
				child, err := buildRule(path+"."+f.key, f.value)
				if err != nil {
					return nil, err
				}
				rule.Fields = append(rule.Fields, model.Field{Name: f.key, Rule: child})
			}
		case "items":
			rule.Items, err = buildRule(path+"[]", kv.value)
		default:
			return nil, fmt.Errorf("%s: unknown rule key %q", path, kv.key)
		}
		if err != nil {
			return nil, err
		}
	}
	return rule, nil
}

// buildDefault accepts either a function record (zero-argument default
// producer) or a plain JSON value.
func buildDefault(path string, v any) (any, error) {
	if src, ok := functionSource(v); ok {
		pred, err := predicate.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("%s.default: %w", path, err)
		}
		return pred, nil
	}
	return toPlain(v), nil
}

// buildDependencies accepts a single entry or a list of entries; each
// entry must carry the canonical dependency shape or the whole
// deserialization fails.
func buildDependencies(path string, v any) ([]model.Dependency, error) {
	entries, ok := v.([]any)
	if !ok {
		entries = []any{v}
	}
	deps := make([]model.Dependency, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(ordered)
		if !ok {
			return nil, fmt.Errorf("%s: dependency %d is not an object", path, i)
		}
		dep := model.Dependency{}
		for _, kv := range obj {
			var err error
			switch kv.key {
			case "field":
				dep.Field, err = toString(path, "field", kv.value)
			case "message":
				dep.Message, err = toString(path, "message", kv.value)
			case "optional":
				dep.Optional, err = toBool(path, "optional", kv.value)
			case "condition":
				dep.Condition, err = buildFunction(fmt.Sprintf("%s.dependsOn[%d].condition", path, i), kv.value)
			case "validate":
				dep.Validate, err = buildFunction(fmt.Sprintf("%s.dependsOn[%d].validate", path, i), kv.value)
			default:
				return nil, fmt.Errorf("%s: dependency %d has unknown key %q", path, i, kv.key)
			}
			if err != nil {
				return nil, err
			}
		}
		if dep.Field == "" {
			return nil, fmt.Errorf("%s: dependency %d is missing its field", path, i)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// buildFunction requires a tagged function record and compiles its source
// through the restricted grammar. Anything else is rejected early.
func buildFunction(path string, v any) (model.Predicate, error) {
	src, ok := functionSource(v)
	if !ok {
		return nil, fmt.Errorf("%s: expected a function record", path)
	}
	pred, err := predicate.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pred, nil
}

func functionSource(v any) (string, bool) {
	obj, ok := v.(ordered)
	if !ok {
		return "", false
	}
	marker, _ := obj.get("marker")
	if marker != FunctionMarker {
		return "", false
	}
	src, _ := obj.get("sourceText")
	s, ok := src.(string)
	return s, ok
}

// toPlain converts a decoded wire value to the plain document
// representation used by the engine: maps, slices, float64 numbers.
func toPlain(v any) any {
	switch t := v.(type) {
	case ordered:
		out := make(map[string]any, len(t))
		for _, kv := range t {
			out[kv.key] = toPlain(kv.value)
		}
		return out
	case []any:
		return toPlainSlice(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	default:
		return v
	}
}

func toPlainSlice(arr []any) []any {
	out := make([]any, len(arr))
	for i, v := range arr {
		out[i] = toPlain(v)
	}
	return out
}

func toBool(path, key string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: %s must be a boolean", path, key)
	}
	return b, nil
}

func toString(path, key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: %s must be a string", path, key)
	}
	return s, nil
}

func toFloatPtr(path, key string, v any) (*float64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return nil, fmt.Errorf("%s: %s must be a number", path, key)
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("%s: %s must be a number", path, key)
	}
	return &f, nil
}

func toIntPtr(path, key string, v any) (*int, error) {
	n, ok := v.(json.Number)
	if !ok {
		return nil, fmt.Errorf("%s: %s must be an integer", path, key)
	}
	i, err := n.Int64()
	if err != nil {
		return nil, fmt.Errorf("%s: %s must be an integer", path, key)
	}
	out := int(i)
	return &out, nil
}
