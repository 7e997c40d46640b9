package model

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// TypeTag identifies one of the supported scalar types. The set is closed:
// new types are added by extending the constants and the dispatch switches
// below, never by runtime registration.
type TypeTag string

const (
	TypeString       TypeTag = "S"
	TypeNumber       TypeTag = "N"
	TypeBoolean      TypeTag = "B"
	TypeList         TypeTag = "L"
	TypeMap          TypeTag = "M"
	TypeEmail        TypeTag = "E"
	TypeURL          TypeTag = "U"
	TypeDate         TypeTag = "D"
	TypePhone        TypeTag = "P"
	TypeRegexPattern TypeTag = "R"
)

// Format-matching rules for the semantic string types. These are fixed:
// a model cannot override them.
var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlPattern   = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#][^\s]*$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?)?$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 .()-]{5,18}[0-9]$`)
)

var longNames = map[string]TypeTag{
	"string":       TypeString,
	"number":       TypeNumber,
	"boolean":      TypeBoolean,
	"list":         TypeList,
	"map":          TypeMap,
	"email":        TypeEmail,
	"url":          TypeURL,
	"date":         TypeDate,
	"phone":        TypePhone,
	"regexpattern": TypeRegexPattern,
	"regex":        TypeRegexPattern,
}

// Valid reports whether t is one of the registered type tags.
func (t TypeTag) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeList, TypeMap,
		TypeEmail, TypeURL, TypeDate, TypePhone, TypeRegexPattern:
		return true
	}
	return false
}

// Name returns the human-readable type name used in error messages.
func (t TypeTag) Name() string {
	switch t {
	case TypeString:
		return "String"
	case TypeNumber:
		return "Number"
	case TypeBoolean:
		return "Boolean"
	case TypeList:
		return "List"
	case TypeMap:
		return "Map"
	case TypeEmail:
		return "Email"
	case TypeURL:
		return "URL"
	case TypeDate:
		return "Date"
	case TypePhone:
		return "Phone"
	case TypeRegexPattern:
		return "RegexPattern"
	default:
		return string(t)
	}
}

// ParseTag parses a type-tag string as it appears in a model: a canonical
// single-letter tag, a long name ("String", "email"), or the composite
// list form "L<X>" which yields TypeList plus the element tag.
func ParseTag(s string) (tag TypeTag, element TypeTag, ok bool) {
	s = strings.TrimSpace(s)
	if inner, found := strings.CutPrefix(s, "L<"); found && strings.HasSuffix(inner, ">") {
		el, _, elOK := ParseTag(strings.TrimSuffix(inner, ">"))
		if !elOK || el == TypeList || el == TypeMap {
			return "", "", false
		}
		return TypeList, el, true
	}
	if t := TypeTag(s); t.Valid() {
		return t, "", true
	}
	if t, found := longNames[strings.ToLower(s)]; found {
		return t, "", true
	}
	return "", "", false
}

// Check reports type membership of value for tag t. Pure; never fails
// beyond returning false. A nil value is a present null and fails every
// type check.
func (t TypeTag) Check(value any) bool {
	switch t {
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeNumber:
		_, ok := ToNumber(value)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeList:
		_, ok := value.([]any)
		return ok
	case TypeMap:
		_, ok := value.(map[string]any)
		return ok
	case TypeEmail:
		s, ok := value.(string)
		return ok && emailPattern.MatchString(s)
	case TypeURL:
		s, ok := value.(string)
		return ok && urlPattern.MatchString(s)
	case TypeDate:
		s, ok := value.(string)
		return ok && datePattern.MatchString(s)
	case TypePhone:
		s, ok := value.(string)
		return ok && phonePattern.MatchString(s)
	case TypeRegexPattern:
		s, ok := value.(string)
		if !ok {
			return false
		}
		_, err := regexp.Compile(s)
		return err == nil
	default:
		return false
	}
}

// ToNumber converts any supported numeric representation to float64.
// JSON decoding produces float64; models built in Go may carry int values.
func ToNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// IsIntegral reports whether f has no fractional part.
func IsIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && math.Trunc(f) == f
}

// FractionalDigits returns the number of decimal digits after the point in
// the shortest decimal representation of f. Integral values return 0.
func FractionalDigits(f float64) int {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// KindOf describes the runtime kind of a data value for error messages.
func KindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "String"
	case bool:
		return "Boolean"
	case float64, float32, int, int64, int32:
		return "Number"
	case []any:
		return "List"
	case map[string]any:
		return "Map"
	default:
		return "unknown"
	}
}
