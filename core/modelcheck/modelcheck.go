// Package modelcheck statically validates the shape of a validation model.
// It inspects the schema, never data, and runs once per model lifecycle:
// before a model is stored, and again after deserialization.
package modelcheck

import (
	"fmt"
	"regexp"

	"github.com/artpar/valigate/domain/model"
)

// DefaultMaxDepth bounds schema nesting. Self-referential schemas have no
// natural depth limit, so the checker enforces an explicit one.
const DefaultMaxDepth = 32

// Report lists every structural defect found in a model, each prefixed
// with the dotted path where it was found.
type Report struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}

func (r *Report) add(path, format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, path+": "+fmt.Sprintf(format, args...))
}

// Checker validates model structure. The zero value uses DefaultMaxDepth.
type Checker struct {
	MaxDepth int
}

// Check validates a model with default settings.
func Check(m *model.Model) Report {
	return Checker{}.Check(m)
}

// Check walks every rule depth-first, fields before items, in declaration
// order, and accumulates a flat list of defects.
func (c Checker) Check(m *model.Model) Report {
	maxDepth := c.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	report := Report{Valid: true}
	if m == nil {
		report.add("", "model must not be nil")
		return report
	}
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if seen[f.Name] {
			report.add(f.Name, "duplicate field name")
			continue
		}
		seen[f.Name] = true
		c.checkRule(&report, f.Name, f.Rule, 1, maxDepth)
	}
	return report
}

func (c Checker) checkRule(report *Report, path string, rule *model.Rule, depth, maxDepth int) {
	if rule == nil {
		report.add(path, "rule must not be nil")
		return
	}
	if depth > maxDepth {
		report.add(path, "maximum nesting depth %d exceeded", maxDepth)
		return
	}

	if rule.Type != "" && !rule.Type.Valid() {
		report.add(path, "unknown type tag %q", string(rule.Type))
	}
	if rule.Type == "" && rule.Fields == nil && rule.Items == nil {
		report.add(path, "rule has no type and no fields or items")
	}
	if rule.Element != "" {
		if !rule.Element.Valid() {
			report.add(path, "unknown element type tag %q", string(rule.Element))
		}
		if rule.Type != model.TypeList {
			report.add(path, "element type is only valid on List rules")
		}
	}

	if rule.Values != nil && len(rule.Values) == 0 {
		report.add(path, "values must not be empty")
	}
	if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
		report.add(path, "min %v must be <= max %v", *rule.Min, *rule.Max)
	}
	if rule.MinLength != nil && *rule.MinLength < 0 {
		report.add(path, "minLength must not be negative")
	}
	if rule.MaxLength != nil && *rule.MaxLength < 0 {
		report.add(path, "maxLength must not be negative")
	}
	if rule.MinLength != nil && rule.MaxLength != nil && *rule.MinLength > *rule.MaxLength {
		report.add(path, "minLength %d must be <= maxLength %d", *rule.MinLength, *rule.MaxLength)
	}
	if rule.Decimals != nil && *rule.Decimals < 0 {
		report.add(path, "decimals must not be negative")
	}
	if rule.Pattern != "" {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			report.add(path, "invalid pattern: %v", err)
		}
	}

	for i, dep := range rule.DependsOn {
		if dep.Field == "" {
			report.add(path, "dependency %d: field must not be empty", i)
		}
		if dep.Condition == nil {
			report.add(path, "dependency %d: condition is not callable", i)
		}
		if dep.Validate == nil {
			report.add(path, "dependency %d: validate is not callable", i)
		}
	}

	seen := make(map[string]bool, len(rule.Fields))
	for _, f := range rule.Fields {
		if seen[f.Name] {
			report.add(path+"."+f.Name, "duplicate field name")
			continue
		}
		seen[f.Name] = true
		c.checkRule(report, path+"."+f.Name, f.Rule, depth+1, maxDepth)
	}
	if rule.Items != nil {
		c.checkRule(report, path+"[]", rule.Items, depth+1, maxDepth)
	}
}
