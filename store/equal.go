package store

import (
	"math"
	"reflect"
)

// Identical reports same-value identity: NaN matches itself, +0 and -0
// differ, and maps, slices, funcs, and pointers compare by reference.
// This is the comparison the store uses to reject redundant mutations.
func Identical[T any](a, b T) bool {
	return sameAny(a, b)
}

// Shallow reports one-level structural equality. Maps match on key set
// and same-value values (set-like maps therefore match on membership),
// slices and arrays element-wise, structs on exported fields. Leaves are
// compared by Identical, never recursively, so nested values match only
// by reference. Values of differing dynamic types never match.
func Shallow[T any](a, b T) bool {
	if sameAny(a, b) {
		return true
	}
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if !av.IsValid() || !bv.IsValid() {
		return false
	}
	if av.Type() != bv.Type() {
		return false
	}
	switch av.Kind() {
	case reflect.Map:
		if av.IsNil() != bv.IsNil() || av.Len() != bv.Len() {
			return false
		}
		iter := av.MapRange()
		for iter.Next() {
			other := bv.MapIndex(iter.Key())
			if !other.IsValid() || !sameValue(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if av.Kind() == reflect.Slice && (av.IsNil() != bv.IsNil()) {
			return false
		}
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !sameValue(av.Index(i), bv.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < av.NumField(); i++ {
			if !av.Type().Field(i).IsExported() {
				continue
			}
			if !sameValue(av.Field(i), bv.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Pointer:
		if av.IsNil() || bv.IsNil() {
			return av.IsNil() && bv.IsNil()
		}
		return shallowValue(av.Elem(), bv.Elem())
	}
	return false
}

func shallowValue(a, b reflect.Value) bool {
	if !a.CanInterface() || !b.CanInterface() {
		return false
	}
	return Shallow[any](a.Interface(), b.Interface())
}

func sameAny(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	return sameValue(av, bv)
}

// sameValue implements the same-value leaf rule over reflect values.
func sameValue(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Float32, reflect.Float64:
		af, bf := a.Float(), b.Float()
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		return math.Float64bits(af) == math.Float64bits(bf)
	case reflect.Map, reflect.Func, reflect.Chan:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()
	case reflect.Pointer, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return sameValue(a.Elem(), b.Elem())
	default:
		if a.Comparable() && b.Comparable() {
			return a.Interface() == b.Interface()
		}
		return false
	}
}
