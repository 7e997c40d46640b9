// Package codec converts validation models to and from the portable JSON
// wire form. Every embedded predicate is replaced by a tagged record
//
//	{"marker": "function", "sourceText": "<single-line source>"}
//
// and dependsOn is always normalized to a list of entry objects. Field
// declaration order is preserved in both directions, which is why the
// package reads and writes JSON at the token level instead of through
// ordinary map unmarshalling.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/artpar/valigate/core/modelcheck"
	"github.com/artpar/valigate/domain/model"
)

// FunctionMarker tags serialized predicate records.
const FunctionMarker = "function"

// Serialize encodes a model as a single JSON text blob. Predicates are
// written as function records with their canonical single-line source.
func Serialize(m *model.Model) (string, error) {
	if m == nil {
		return "", fmt.Errorf("serialize: model must not be nil")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, f.Name); err != nil {
			return "", err
		}
		if err := writeRule(&buf, f.Name, f.Rule); err != nil {
			return "", err
		}
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// Deserialize decodes a serialized model, reconstructing every function
// record through the restricted predicate grammar, then re-runs the
// structural validator on the rebuilt tree. A model that deserializes but
// fails the structural check fails the whole call.
func Deserialize(s string) (*model.Model, error) {
	root, err := decodeOrdered(s)
	if err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}
	obj, ok := root.(ordered)
	if !ok {
		return nil, fmt.Errorf("deserialize: model must be a JSON object")
	}
	m := &model.Model{Fields: make([]model.Field, 0, len(obj))}
	for _, kv := range obj {
		rule, err := buildRule(kv.key, kv.value)
		if err != nil {
			return nil, fmt.Errorf("deserialize: %w", err)
		}
		m.Fields = append(m.Fields, model.Field{Name: kv.key, Rule: rule})
	}
	if report := modelcheck.Check(m); !report.Valid {
		return nil, fmt.Errorf("deserialize: rebuilt model is invalid: %s", strings.Join(report.Errors, "; "))
	}
	return m, nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}

type fieldWriter struct {
	buf   *bytes.Buffer
	wrote bool
	err   error
}

func (w *fieldWriter) emit(key string, value func() error) {
	if w.err != nil {
		return
	}
	if w.wrote {
		w.buf.WriteByte(',')
	}
	w.wrote = true
	if err := writeKey(w.buf, key); err != nil {
		w.err = err
		return
	}
	w.err = value()
}

func (w *fieldWriter) emitJSON(key string, value any) {
	w.emit(key, func() error {
		b, err := json.Marshal(value)
		if err != nil {
			return err
		}
		w.buf.Write(b)
		return nil
	})
}

func writeRule(buf *bytes.Buffer, path string, r *model.Rule) error {
	if r == nil {
		return fmt.Errorf("%s: rule must not be nil", path)
	}
	buf.WriteByte('{')
	w := &fieldWriter{buf: buf}

	if r.Type != "" {
		w.emitJSON("type", r.TagString())
	}
	if r.Optional {
		w.emitJSON("optional", true)
	}
	if r.Default != nil {
		if pred, ok := r.Default.(model.Predicate); ok {
			w.emit("default", func() error { return writeFunction(buf, pred) })
		} else {
			w.emitJSON("default", r.Default)
		}
	}
	if r.Min != nil {
		w.emitJSON("min", *r.Min)
	}
	if r.Max != nil {
		w.emitJSON("max", *r.Max)
	}
	if r.Integer {
		w.emitJSON("integer", true)
	}
	if r.Decimal {
		w.emitJSON("decimal", true)
	}
	if r.Decimals != nil {
		w.emitJSON("decimals", *r.Decimals)
	}
	if r.MinLength != nil {
		w.emitJSON("minLength", *r.MinLength)
	}
	if r.MaxLength != nil {
		w.emitJSON("maxLength", *r.MaxLength)
	}
	if r.Pattern != "" {
		w.emitJSON("pattern", r.Pattern)
	}
	if r.Values != nil {
		w.emitJSON("values", r.Values)
	}
	if r.Message != "" {
		w.emitJSON("message", r.Message)
	}
	if r.Validate != nil {
		w.emit("validate", func() error { return writeFunction(buf, r.Validate) })
	}
	if len(r.DependsOn) > 0 {
		w.emit("dependsOn", func() error { return writeDependencies(buf, r.DependsOn) })
	}
	if r.Fields != nil {
		w.emit("fields", func() error {
			buf.WriteByte('{')
			for i, f := range r.Fields {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := writeKey(buf, f.Name); err != nil {
					return err
				}
				if err := writeRule(buf, path+"."+f.Name, f.Rule); err != nil {
					return err
				}
			}
			buf.WriteByte('}')
			return nil
		})
	}
	if r.Items != nil {
		w.emit("items", func() error { return writeRule(buf, path+"[]", r.Items) })
	}

	buf.WriteByte('}')
	return w.err
}

func writeFunction(buf *bytes.Buffer, pred model.Predicate) error {
	record := map[string]string{
		"marker":     FunctionMarker,
		"sourceText": collapseLines(pred.Source()),
	}
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// writeDependencies always emits the normalized list form, even for a
// single entry.
func writeDependencies(buf *bytes.Buffer, deps []model.Dependency) error {
	buf.WriteByte('[')
	for i, dep := range deps {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		w := &fieldWriter{buf: buf}
		w.emitJSON("field", dep.Field)
		if dep.Message != "" {
			w.emitJSON("message", dep.Message)
		}
		if dep.Condition != nil {
			w.emit("condition", func() error { return writeFunction(buf, dep.Condition) })
		}
		if dep.Validate != nil {
			w.emit("validate", func() error { return writeFunction(buf, dep.Validate) })
		}
		if dep.Optional {
			w.emitJSON("optional", true)
		}
		if w.err != nil {
			return w.err
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return nil
}

// collapseLines folds internal newlines to single spaces so the source
// survives single-line transport encodings.
func collapseLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
