// Package serialize flattens arbitrary Go values into plain data: nested
// map[string]any, []any and scalars. The result is what test harnesses
// compare against or hand to a YAML/JSON encoder.
//
// Conversion rules:
//   - maps are copied key by key; keys become strings
//   - slices and arrays become []any ([]byte stays a scalar)
//   - structs become a map of their exported fields, skipping nil values,
//     funcs and channels; a json tag renames a field and "-" drops it
//   - pointers and interfaces are followed; nil is nil
//   - encoding.TextMarshaler values become their text
//   - everything else is returned as-is
//
// A pointer, map or slice reached again while it is still being converted
// is replaced by nil, so self-referential graphs terminate.
package serialize

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
)

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

// ToMap converts v into plain maps, slices and scalars.
func ToMap(v any) any {
	if v == nil {
		return nil
	}
	c := &converter{active: make(map[visit]bool)}
	return c.convert(reflect.ValueOf(v))
}

// visit identifies a reference-typed value on the current recursion path.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type converter struct {
	active map[visit]bool
}

// enter marks rv as in progress. It returns false if rv is already on the
// path, i.e. the graph loops back on itself.
func (c *converter) enter(rv reflect.Value) (visit, bool) {
	key := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		key.len = rv.Len()
	}
	if c.active[key] {
		return key, false
	}
	c.active[key] = true
	return key, true
}

func (c *converter) leave(key visit) {
	delete(c.active, key)
}

func (c *converter) convert(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}

	if text, ok := marshalText(rv); ok {
		return text
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		key, ok := c.enter(rv)
		if !ok {
			return nil
		}
		defer c.leave(key)
		return c.convert(rv.Elem())

	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return c.convert(rv.Elem())

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		key, ok := c.enter(rv)
		if !ok {
			return nil
		}
		defer c.leave(key)

		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[mapKey(iter.Key())] = c.convert(iter.Value())
		}
		return out

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return rv.Interface()
		}
		key, ok := c.enter(rv)
		if !ok {
			return nil
		}
		defer c.leave(key)
		return c.sequence(rv)

	case reflect.Array:
		return c.sequence(rv)

	case reflect.Struct:
		return c.structFields(rv)

	default:
		if rv.CanInterface() {
			return rv.Interface()
		}
		return nil
	}
}

func (c *converter) sequence(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = c.convert(rv.Index(i))
	}
	return out
}

func (c *converter) structFields(rv reflect.Value) map[string]any {
	t := rv.Type()
	out := make(map[string]any, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, skip := fieldName(field)
		if skip {
			continue
		}

		fv := rv.Field(i)
		if isCallableOrNil(fv) {
			continue
		}

		converted := c.convert(fv)
		if converted == nil {
			continue
		}
		out[name] = converted
	}
	return out
}

// fieldName honours a json tag, if any.
func fieldName(field reflect.StructField) (name string, skip bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return field.Name, false
	}
	if tag == "-" {
		return "", true
	}
	name, _, _ = strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, false
}

func isCallableOrNil(fv reflect.Value) bool {
	// Judge the dynamic value held by an interface field, not the field type.
	for fv.Kind() == reflect.Interface && !fv.IsNil() {
		fv = fv.Elem()
	}
	switch fv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return fv.IsNil()
	default:
		return false
	}
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if text, ok := marshalText(k); ok {
		return text
	}
	return fmt.Sprint(k.Interface())
}

// marshalText renders values that know their own text form. Nil pointers
// are left to the caller.
func marshalText(rv reflect.Value) (string, bool) {
	if !rv.CanInterface() || !rv.Type().Implements(textMarshalerType) {
		return "", false
	}
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return "", false
	}
	m, ok := rv.Interface().(encoding.TextMarshaler)
	if !ok {
		return "", false
	}
	b, err := m.MarshalText()
	if err != nil {
		return "", false
	}
	return string(b), true
}
