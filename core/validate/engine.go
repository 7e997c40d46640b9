// Package validate implements the recursive data-validation engine.
//
// Validation of one (data, model) pair is a pure tree walk: data problems
// are collected into the result, never thrown, and every field is checked
// in model declaration order. The engine itself holds no mutable state, so
// one Engine may serve concurrent validations.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/artpar/valigate/core/paths"
	"github.com/artpar/valigate/domain/model"
)

// UnknownFieldMode controls handling of data keys absent from the model.
type UnknownFieldMode int

const (
	// UnknownIgnore silently accepts unknown keys (the default).
	UnknownIgnore UnknownFieldMode = iota

	// UnknownReport turns every unknown key into a field error.
	UnknownReport
)

// DefaultMaxDepth bounds data recursion, guarding against pathological
// self-referential schemas.
const DefaultMaxDepth = 32

// Options configure an Engine.
type Options struct {
	UnknownFields UnknownFieldMode
	MaxDepth      int
}

// Engine validates data documents against models.
type Engine struct {
	opts Options
}

// New creates an engine. A zero Options value gives the documented
// defaults: unknown fields ignored, depth limit 32.
func New(opts Options) *Engine {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Engine{opts: opts}
}

// Validate checks data against m. The input map is never mutated: defaults
// are applied to a deep copy, which is returned as Result.Data on success.
func (e *Engine) Validate(data map[string]any, m *model.Model) model.Result {
	result := model.Result{Valid: true}

	doc, _ := deepClone(data).(map[string]any)
	if doc == nil {
		doc = make(map[string]any)
	}
	applyDefaults(doc, m.Fields)

	if e.opts.UnknownFields == UnknownReport {
		reportUnknown(&result, "", doc, m.Fields)
	}
	for _, f := range m.Fields {
		value, present := doc[f.Name]
		e.validateValue(&result, f.Name, value, present, f.Rule, doc, doc, 1)
	}

	if result.Valid {
		result.Data = doc
	}
	return result
}

// validateValue runs the per-field pipeline: presence, type, enumeration,
// refinements, standalone validate, recursion, then dependencies. parent
// is the containing map used for sibling-relative dependency paths; doc is
// the defaulted document root.
func (e *Engine) validateValue(result *model.Result, path string, value any, present bool, rule *model.Rule, parent, doc map[string]any, depth int) {
	if rule == nil {
		return
	}
	if depth > e.opts.MaxDepth {
		result.AddError(path, fmt.Sprintf("maximum nesting depth %d exceeded", e.opts.MaxDepth))
		return
	}

	if !present {
		e.checkAbsent(result, path, rule, parent, doc)
		return
	}

	tag := rule.EffectiveType()
	if tag != "" && !tag.Check(value) {
		result.AddError(path, fmt.Sprintf("expected type %s, got %s", tag.Name(), model.KindOf(value)))
		return
	}

	if len(rule.Values) > 0 && !memberOf(rule.Values, value) {
		result.AddError(path, "must be one of: "+formatValues(rule.Values))
	}

	if num, ok := model.ToNumber(value); ok && tag == model.TypeNumber {
		e.checkNumber(result, path, num, rule)
	}
	if s, ok := value.(string); ok {
		e.checkString(result, path, s, rule)
	}

	if rule.Validate != nil {
		e.runStandalone(result, path, value, rule)
	}

	if items := rule.ItemRule(); items != nil {
		if list, ok := value.([]any); ok {
			for i, el := range list {
				e.validateValue(result, fmt.Sprintf("%s[%d]", path, i), el, true, items, nil, doc, depth+1)
			}
		}
	}
	if rule.Fields != nil {
		if nested, ok := value.(map[string]any); ok {
			if e.opts.UnknownFields == UnknownReport {
				reportUnknown(result, path, nested, rule.Fields)
			}
			for _, f := range rule.Fields {
				v, has := nested[f.Name]
				e.validateValue(result, path+"."+f.Name, v, has, f.Rule, nested, doc, depth+1)
			}
		}
	}

	// All dependency entries are evaluated, in declared order, one error
	// each - never short-circuited once one fails.
	for _, dep := range rule.DependsOn {
		e.checkDependency(result, path, value, dep, parent, doc)
	}
}

// checkAbsent handles an undefined field: a satisfied non-optional
// dependency makes it required with that entry's message, otherwise
// optionality decides.
func (e *Engine) checkAbsent(result *model.Result, path string, rule *model.Rule, parent, doc map[string]any) {
	for _, dep := range rule.DependsOn {
		if dep.Optional || dep.Condition == nil {
			continue
		}
		depValue := resolveDependent(parent, doc, dep.Field)
		required, err := dep.Condition.Bool(depValue)
		if err != nil {
			result.AddError(path, dependencyMessage(dep))
			return
		}
		if required {
			msg := dep.Message
			if msg == "" {
				msg = "Field is required"
			}
			result.AddError(path, msg)
			return
		}
	}
	if rule.Optional {
		return
	}
	result.AddError(path, "Field is required")
}

func (e *Engine) checkNumber(result *model.Result, path string, num float64, rule *model.Rule) {
	// Each refinement is checked independently, not short-circuited.
	if rule.Min != nil && num < *rule.Min {
		result.AddError(path, fmt.Sprintf("must be at least %v", *rule.Min))
	}
	if rule.Max != nil && num > *rule.Max {
		result.AddError(path, fmt.Sprintf("must be at most %v", *rule.Max))
	}
	if rule.Integer && !model.IsIntegral(num) {
		result.AddError(path, "must be an integer")
	}
	if rule.Decimals != nil {
		// Integral values pass: decimal-or-integer leniency.
		if d := model.FractionalDigits(num); d != 0 && d != *rule.Decimals {
			result.AddError(path, fmt.Sprintf("must have exactly %d decimal places", *rule.Decimals))
		}
	}
}

func (e *Engine) checkString(result *model.Result, path, s string, rule *model.Rule) {
	if rule.MinLength != nil && len(s) < *rule.MinLength {
		result.AddError(path, fmt.Sprintf("must be at least %d characters", *rule.MinLength))
	}
	if rule.MaxLength != nil && len(s) > *rule.MaxLength {
		result.AddError(path, fmt.Sprintf("must be at most %d characters", *rule.MaxLength))
	}
	if rule.Pattern != "" {
		if matched, err := regexp.MatchString(rule.Pattern, s); err == nil && !matched {
			msg := rule.Message
			if msg == "" {
				msg = "does not match required pattern"
			}
			result.AddError(path, msg)
		}
	}
}

// runStandalone invokes the rule's standalone validate predicate. A
// predicate that errors is a reported field failure, not a process fault.
func (e *Engine) runStandalone(result *model.Result, path string, value any, rule *model.Rule) {
	ok, err := rule.Validate.Bool(value)
	if err != nil {
		msg := rule.Message
		if msg == "" {
			msg = fmt.Sprintf("validation failed: %v", err)
		}
		result.AddError(path, msg)
		return
	}
	if !ok {
		msg := rule.Message
		if msg == "" {
			msg = "failed validation"
		}
		result.AddError(path, msg)
	}
}

func (e *Engine) checkDependency(result *model.Result, path string, value any, dep model.Dependency, parent, doc map[string]any) {
	if dep.Condition == nil || dep.Validate == nil {
		return
	}
	depValue := resolveDependent(parent, doc, dep.Field)
	applies, err := dep.Condition.Bool(depValue)
	if err != nil {
		result.AddError(path, dependencyMessage(dep))
		return
	}
	if !applies {
		return
	}
	ok, err := dep.Validate.Bool(value, depValue, doc)
	if err != nil || !ok {
		result.AddError(path, dependencyMessage(dep))
	}
}

// resolveDependent applies the field-path rule: a dotted path resolves
// from the document root, a bare name against the current node's siblings.
func resolveDependent(parent, doc map[string]any, field string) any {
	if strings.Contains(field, ".") || parent == nil {
		v, _ := paths.Resolve(doc, field)
		return v
	}
	return parent[field]
}

func dependencyMessage(dep model.Dependency) string {
	if dep.Message != "" {
		return dep.Message
	}
	return "failed dependency validation on " + dep.Field
}

// reportUnknown adds an error per data key absent from the declared
// fields. Keys are sorted so error order stays deterministic.
func reportUnknown(result *model.Result, prefix string, data map[string]any, fields []model.Field) {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Name] = true
	}
	var unknown []string
	for k := range data {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		result.AddError(paths.Join(prefix, k), "unexpected field")
	}
}

func memberOf(values []any, value any) bool {
	for _, v := range values {
		if equalValue(v, value) {
			return true
		}
	}
	return false
}

// equalValue compares enum members: numbers numerically, everything else
// by interface equality.
func equalValue(a, b any) bool {
	if an, ok := model.ToNumber(a); ok {
		bn, ok := model.ToNumber(b)
		return ok && an == bn
	}
	return a == b
}

func formatValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, ", ")
}
