package store

import "reflect"

// Equality selects how a cell decides whether a newly set value is a
// change worth notifying subscribers about.
type Equality int

const (
	// EqualityPrimitive notifies unless old and new are identical
	// primitives. Identical non-primitives still notify, so the
	// mutate-then-reassign pattern on maps, slices and pointers works.
	EqualityPrimitive Equality = iota
	// EqualityNever treats every set as a change.
	EqualityNever
	// EqualityAlways treats identical values as unchanged, primitive or not.
	EqualityAlways
)

// shouldNotify reports whether replacing old with new warrants a
// notification wave under the given mode. Values that are not
// identical always notify, whatever the mode.
func shouldNotify(old, new any, mode Equality) bool {
	if !identical(old, new) {
		return true
	}
	switch mode {
	case EqualityNever:
		return true
	case EqualityAlways:
		return false
	default:
		return !isPrimitive(new)
	}
}

// identical is the Go rendering of reference equality: == for
// comparable values, data-pointer identity for slices, maps and funcs.
// Values of non-comparable composite types are never identical.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	if !va.Type().Comparable() {
		return false
	}
	return a == b
}

// isPrimitive reports whether v is a scalar in the equality policy's
// sense: a boolean, any numeric kind, a string, or the absence of a
// value. Everything else, pointers and composites included, is not.
func isPrimitive(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	}
	return false
}
