package validate

import "github.com/artpar/valigate/domain/model"

// applyDefaults fills absent non-optional keys with their rule defaults,
// recursing into existing nested maps and list elements. It runs as a
// pre-pass over the whole document so that every later lookup, including
// dependency resolution, sees defaulted values.
func applyDefaults(doc map[string]any, fields []model.Field) {
	for _, f := range fields {
		rule := f.Rule
		if rule == nil {
			continue
		}
		value, present := doc[f.Name]
		if !present && !rule.Optional && rule.Default != nil {
			if v, ok := defaultValue(rule.Default); ok {
				doc[f.Name] = v
				value, present = v, true
			}
		}
		if !present {
			continue
		}
		switch nested := value.(type) {
		case map[string]any:
			if rule.Fields != nil {
				applyDefaults(nested, rule.Fields)
			}
		case []any:
			item := rule.ItemRule()
			if item == nil || item.Fields == nil {
				continue
			}
			for _, el := range nested {
				if m, ok := el.(map[string]any); ok {
					applyDefaults(m, item.Fields)
				}
			}
		}
	}
}

// defaultValue materializes a rule default: zero-argument predicates are
// invoked, plain values are deep-cloned so documents never share state.
func defaultValue(def any) (any, bool) {
	if pred, ok := def.(model.Predicate); ok {
		v, err := pred.Call()
		if err != nil {
			return nil, false
		}
		return v, true
	}
	return deepClone(def), true
}

func deepClone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepClone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepClone(val)
		}
		return out
	default:
		return v
	}
}
