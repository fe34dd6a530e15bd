package util

import "reflect"

func IsZero(i interface{}) bool {
	if i == nil {
		return true
	}
	return IsZeroVal(reflect.ValueOf(i))
}

// IsZeroVal works for uncomparable kinds too, so config structs may hold slices.
func IsZeroVal(v reflect.Value) bool {
	return v.IsZero()
}
