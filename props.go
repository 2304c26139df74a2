package hxtag

import (
	"context"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/a-h/templ"
	"github.com/agnivade/levenshtein"

	"github.com/pthm/hxtag/lib/jsoncodec"
)

// PropKind is the type tag of a Prop.
type PropKind int

const (
	KindString PropKind = iota + 1
	KindNumber
	KindBoolean
	KindArray
	KindObject
	KindOneOf
)

func (k PropKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindOneOf:
		return "oneOf"
	default:
		return "unknown"
	}
}

// Prop describes how one component input is derived from a raw string
// attribute. Props are built with the constructors below, each of which
// takes the default value; call Required to drop the default instead.
// A Prop therefore always has a default or is required, never neither.
//
//	hxtag.Schema{
//	    {"label", hxtag.StringProp("").Required()},
//	    {"count", hxtag.NumberProp(0)},
//	    {"disabled", hxtag.BoolProp(false)},
//	    {"size", hxtag.OneOf([]string{"sm", "md", "lg"}, "md")},
//	}
type Prop struct {
	kind     PropKind
	def      any
	required bool
	options  []string
}

// StringProp passes the attribute value through unchanged.
func StringProp(def string) Prop {
	return Prop{kind: KindString, def: def}
}

// NumberProp parses the attribute strictly as a float64.
func NumberProp(def float64) Prop {
	return Prop{kind: KindNumber, def: def}
}

// BoolProp is presence-based: the prop is true whenever the attribute
// exists, whatever its value (even "false"), and the default when absent.
func BoolProp(def bool) Prop {
	return Prop{kind: KindBoolean, def: def}
}

// ArrayProp decodes the attribute as a JSON array.
func ArrayProp(def []any) Prop {
	return Prop{kind: KindArray, def: cloneValue(def)}
}

// ObjectProp decodes the attribute as a JSON object.
func ObjectProp(def map[string]any) Prop {
	return Prop{kind: KindObject, def: cloneValue(def)}
}

// OneOf accepts only values from a fixed set.
func OneOf(values []string, def string) Prop {
	return Prop{kind: KindOneOf, def: def, options: append([]string(nil), values...)}
}

// Required marks the prop as required. Required props have no default.
func (p Prop) Required() Prop {
	p.required = true
	p.def = nil
	return p
}

// Kind returns the prop's type tag.
func (p Prop) Kind() PropKind { return p.kind }

// IsRequired reports whether the prop must be supplied.
func (p Prop) IsRequired() bool { return p.required }

// Default returns the default value; ok is false for required props.
func (p Prop) Default() (any, bool) {
	if p.required {
		return nil, false
	}
	return cloneValue(p.def), true
}

// cloneValue deep-copies decoded JSON values so every render gets its own
// array and object defaults.
func cloneValue(v any) any {
	switch v := v.(type) {
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		if v == nil {
			return v
		}
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Options returns the accepted values of a OneOf prop.
func (p Prop) Options() []string {
	return append([]string(nil), p.options...)
}

func (p Prop) expected() string {
	if p.kind == KindOneOf {
		return "one of: " + strings.Join(p.options, ", ")
	}
	return p.kind.String()
}

// Parse converts a present attribute value to the prop's typed value.
// Boolean props never fail: presence alone means true.
func (p Prop) Parse(key, raw string) (any, *PropError) {
	switch p.kind {
	case KindString:
		return raw, nil

	case KindNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, &PropError{Kind: InvalidValue, Key: key, Expected: p.expected(), Value: raw}
		}
		return n, nil

	case KindBoolean:
		return true, nil

	case KindArray:
		var v any
		if err := jsoncodec.UnmarshalString(raw, &v); err != nil {
			return nil, &PropError{Kind: ParseFailed, Key: key, Expected: p.expected(), Value: raw, Reason: err.Error()}
		}
		arr, ok := v.([]any)
		if !ok {
			return nil, &PropError{Kind: InvalidValue, Key: key, Expected: p.expected(), Value: raw}
		}
		return arr, nil

	case KindObject:
		var v any
		if err := jsoncodec.UnmarshalString(raw, &v); err != nil {
			return nil, &PropError{Kind: ParseFailed, Key: key, Expected: p.expected(), Value: raw, Reason: err.Error()}
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, &PropError{Kind: InvalidValue, Key: key, Expected: p.expected(), Value: raw}
		}
		return obj, nil

	case KindOneOf:
		for _, opt := range p.options {
			if opt == raw {
				return raw, nil
			}
		}
		return nil, &PropError{Kind: InvalidValue, Key: key, Expected: p.expected(), Value: raw}
	}
	return nil, &PropError{Kind: InvalidValue, Key: key, Expected: "known prop kind", Value: raw}
}

// Field is one named entry of a Schema.
type Field struct {
	Name string
	Prop Prop
}

// Schema is the ordered prop declaration of a component.
type Schema []Field

// Validate checks names and OneOf sets. Registration calls it.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, f := range s {
		if f.Name == "" {
			return fmt.Errorf("%w: empty prop name", ErrInvalidComponent)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate prop %q", ErrInvalidComponent, f.Name)
		}
		seen[f.Name] = true

		if f.Prop.kind < KindString || f.Prop.kind > KindOneOf {
			return fmt.Errorf("%w: prop %q has no type; use a constructor such as StringProp", ErrInvalidComponent, f.Name)
		}
		if f.Prop.kind == KindOneOf {
			if len(f.Prop.options) == 0 {
				return fmt.Errorf("%w: prop %q: OneOf needs at least one value", ErrInvalidComponent, f.Name)
			}
			if !f.Prop.required {
				if _, err := f.Prop.Parse(f.Name, f.Prop.def.(string)); err != nil {
					return fmt.Errorf("%w: prop %q: default %q not in set", ErrInvalidComponent, f.Name, f.Prop.def)
				}
			}
		}
	}
	return nil
}

// Names returns the prop names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// InferSchema derives a schema from a map of default values. Keys are
// sorted so the schema order is stable. Values of unsupported types are
// treated as strings via fmt.
func InferSchema(defaults map[string]any) Schema {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	schema := make(Schema, 0, len(keys))
	for _, k := range keys {
		schema = append(schema, Field{Name: k, Prop: inferProp(defaults[k])})
	}
	return schema
}

func inferProp(v any) Prop {
	switch d := v.(type) {
	case string:
		return StringProp(d)
	case bool:
		return BoolProp(d)
	case float64:
		return NumberProp(d)
	case []any:
		return ArrayProp(d)
	case map[string]any:
		return ObjectProp(d)
	case nil:
		return StringProp("")
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NumberProp(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NumberProp(float64(rv.Uint()))
	case reflect.Float32:
		return NumberProp(rv.Float())
	}
	return StringProp(fmt.Sprint(v))
}

// RawAttributes maps attribute names, exactly as written in the tag, to
// their string values. Bare attributes map to "".
type RawAttributes map[string]string

// lookup finds key verbatim, then in kebab-case.
func (raw RawAttributes) lookup(key string) (string, bool) {
	if v, ok := raw[key]; ok {
		return v, true
	}
	if kebab := KebabCase(key); kebab != key {
		if v, ok := raw[kebab]; ok {
			return v, true
		}
	}
	return "", false
}

// KebabCase converts camelCase to kebab-case: "maxCount" -> "max-count".
func KebabCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseProps parses raw attributes against schema. Every schema entry is
// checked and all failures are returned together as PropErrors; on success
// the result has exactly one value per schema entry.
//
// A nil schema passes every attribute through as a string.
func ParseProps(schema Schema, raw RawAttributes) (Props, error) {
	if schema == nil {
		values := make(map[string]any, len(raw))
		for k, v := range raw {
			values[k] = v
		}
		return Props{values: values}, nil
	}

	values := make(map[string]any, len(schema))
	var errs PropErrors

	for _, f := range schema {
		rawVal, present := raw.lookup(f.Name)
		if !present {
			if def, ok := f.Prop.Default(); ok {
				values[f.Name] = def
				continue
			}
			errs = append(errs, &PropError{Kind: RequiredMissing, Key: f.Name, Expected: f.Prop.expected()})
			continue
		}

		v, perr := f.Prop.Parse(f.Name, rawVal)
		if perr != nil {
			errs = append(errs, perr)
			continue
		}
		values[f.Name] = v
	}

	if len(errs) > 0 {
		return Props{}, errs
	}
	return Props{values: values}, nil
}

// Suggest returns a hint for a failing prop: the closest attribute name in
// raw that the schema does not know, when it is within edit distance 2.
func Suggest(schema Schema, raw RawAttributes, key string) string {
	known := make(map[string]bool, len(schema)*2)
	for _, f := range schema {
		known[f.Name] = true
		known[KebabCase(f.Name)] = true
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		if !known[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	best, bestDist := "", 3
	for _, name := range names {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(key))
		if kd := levenshtein.ComputeDistance(strings.ToLower(name), KebabCase(key)); kd < d {
			d = kd
		}
		if d < bestDist {
			best, bestDist = name, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf("attribute %q is not a prop; did you mean %q?", best, key)
}

// Props is the parsed, immutable input of one render call.
type Props struct {
	values   map[string]any
	children string
}

// Get returns the raw typed value.
func (p Props) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key has a value.
func (p Props) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Len returns the number of props.
func (p Props) Len() int { return len(p.values) }

// Keys returns the prop names sorted.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a string prop, or "" if missing or not a string.
func (p Props) String(key string) string {
	s, _ := p.values[key].(string)
	return s
}

// Number returns a number prop, or 0.
func (p Props) Number(key string) float64 {
	n, _ := p.values[key].(float64)
	return n
}

// Int returns a number prop truncated to int.
func (p Props) Int(key string) int {
	return int(p.Number(key))
}

// Bool returns a boolean prop, or false.
func (p Props) Bool(key string) bool {
	b, _ := p.values[key].(bool)
	return b
}

// Array returns an array prop, or nil.
func (p Props) Array(key string) []any {
	a, _ := p.values[key].([]any)
	return a
}

// Object returns an object prop, or nil.
func (p Props) Object(key string) map[string]any {
	o, _ := p.values[key].(map[string]any)
	return o
}

// Map returns a copy of all values, for templates.
func (p Props) Map() map[string]any {
	m := make(map[string]any, len(p.values))
	for k, v := range p.values {
		m[k] = v
	}
	return m
}

// ChildrenHTML returns the inner HTML of the tag, unresolved. Component tags
// inside it are resolved after the render output is spliced back in.
func (p Props) ChildrenHTML() string { return p.children }

// Children returns the inner HTML of the tag as a component.
func (p Props) Children() templ.Component {
	return HTMLComponent(p.children)
}

func (p Props) withChildren(children string) Props {
	p.children = children
	return p
}

// HTMLComponent wraps trusted markup as a templ component.
func HTMLComponent(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}
