// Package model defines the validation model: an ordered schema tree of
// typed rules, constraints, and cross-field dependencies. Models are value
// types: immutable once handed to the engine, safe for concurrent reads.
package model

// Predicate is a callable guard embedded in a model. Predicates are only
// ever invoked by the engine as condition/validator functions; they are
// compiled from a restricted source grammar by core/predicate.
type Predicate interface {
	// Call evaluates the predicate with positional arguments bound to its
	// declared parameters. Missing arguments bind to nil.
	Call(args ...any) (any, error)

	// Bool evaluates the predicate and coerces the result to a boolean.
	Bool(args ...any) (bool, error)

	// Source returns the canonical single-line source text, suitable for
	// the serialized wire form.
	Source() string
}

// Model is the root schema: an ordered list of named field rules.
// Declaration order governs error ordering and must be preserved.
type Model struct {
	Fields []Field
}

// Field pairs a field name with its rule.
type Field struct {
	Name string
	Rule *Rule
}

// Rule is one node in the schema tree.
type Rule struct {
	// Type is the declared type tag. Empty only for constraint-only
	// wrappers, which resolve to Map or List semantics via Fields/Items.
	Type TypeTag

	// Element carries the element tag of the composite "L<X>" shorthand.
	Element TypeTag

	// Optional makes absence of the field acceptable.
	Optional bool

	// Default is applied when the field is absent and the rule is not
	// optional: a JSON-safe value (deep-cloned) or a zero-argument
	// Predicate (invoked per validation).
	Default any

	// String constraints.
	MinLength *int
	MaxLength *int
	Pattern   string

	// Number constraints. Integer and Decimals are refinements applied
	// after the base Number check. Decimal is carried through the wire
	// form but imposes no check of its own: integral values always
	// satisfy Decimals, so Decimals alone governs fractional digits.
	Min      *float64
	Max      *float64
	Integer  bool
	Decimal  bool
	Decimals *int

	// Values is an enumerated allow-list for any scalar.
	Values []any

	// Items is the sub-rule applied to every element of a List.
	Items *Rule

	// Fields holds the ordered sub-rules of a Map.
	Fields []Field

	// DependsOn lists cross-field dependencies, evaluated in order.
	DependsOn []Dependency

	// Validate is a standalone single-argument predicate.
	Validate Predicate

	// Message overrides the generic error message for Pattern and
	// Validate failures.
	Message string
}

// Dependency is a field-to-field conditional constraint: when the
// dependent field satisfies Condition, this field's value must satisfy
// Validate.
type Dependency struct {
	// Field names the dependent field. A bare name resolves against the
	// current node's siblings; a dotted path resolves from the document
	// root.
	Field string

	// Condition is called with the dependent value.
	Condition Predicate

	// Validate is called with (ownValue, dependentValue, fullData), where
	// fullData has defaults already applied.
	Validate Predicate

	// Message is reported when the dependency fails.
	Message string

	// Optional entries never mark the field as required when absent.
	Optional bool
}

// EffectiveType resolves the tag the engine should check: the declared
// tag, or Map/List semantics implied by Fields/Items on a wrapper rule.
func (r *Rule) EffectiveType() TypeTag {
	if r.Type != "" {
		return r.Type
	}
	if r.Fields != nil {
		return TypeMap
	}
	if r.Items != nil {
		return TypeList
	}
	return ""
}

// ItemRule returns the rule applied to list elements, synthesizing one
// from the composite "L<X>" element tag when no explicit Items rule is set.
func (r *Rule) ItemRule() *Rule {
	if r.Items != nil {
		return r.Items
	}
	if r.Element != "" {
		return &Rule{Type: r.Element}
	}
	return nil
}

// Field returns the named sub-rule of a Map rule, or nil.
func (r *Rule) Field(name string) *Rule {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Rule
		}
	}
	return nil
}

// Field returns the named top-level rule, or nil.
func (m *Model) Field(name string) *Rule {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Rule
		}
	}
	return nil
}

// TagString reconstructs the declared tag text, including the composite
// list form.
func (r *Rule) TagString() string {
	if r.Type == TypeList && r.Element != "" {
		return "L<" + string(r.Element) + ">"
	}
	return string(r.Type)
}
