package store

import "reflect"

// mergeValue applies the value-form merge rule. When both the current
// state and the candidate are non-nil maps of the same type, the result
// is a fresh map holding the current entries with the candidate's keys
// copied over them. Any other kind replaces wholesale: partial updates of
// struct states go through Update closures, since a merged struct cannot
// distinguish a deliberate zero value from an omitted field.
func mergeValue[T any](current, next T) T {
	cv := reflect.ValueOf(current)
	nv := reflect.ValueOf(next)
	if cv.Kind() != reflect.Map || nv.Kind() != reflect.Map {
		return next
	}
	if cv.IsNil() || nv.IsNil() || cv.Type() != nv.Type() {
		return next
	}
	out := reflect.MakeMapWithSize(cv.Type(), cv.Len())
	iter := cv.MapRange()
	for iter.Next() {
		out.SetMapIndex(iter.Key(), iter.Value())
	}
	iter = nv.MapRange()
	for iter.Next() {
		out.SetMapIndex(iter.Key(), iter.Value())
	}
	merged, ok := out.Interface().(T)
	if !ok {
		return next
	}
	return merged
}
