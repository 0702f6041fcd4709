package enum

import (
	"fmt"
	"reflect"
)

// registry maps an enum type to the set of its declared values.
var registry = map[reflect.Type]map[string]any{}

// New declares value as a member of its type. It is meant for package level var blocks.
func New[T ~string](value T) T {
	t := reflect.TypeOf(value)
	if _, ok := registry[t]; !ok {
		registry[t] = map[string]any{}
	}

	registry[t][string(value)] = value
	return value
}

// ToEnum converts s into a declared member of T.
func ToEnum[T ~string](s string) (T, error) {
	var zero T
	values, ok := registry[reflect.TypeOf(zero)]
	if !ok {
		return zero, fmt.Errorf("not found enum type %T", zero)
	}

	v, ok := values[s]
	if !ok {
		return zero, fmt.Errorf("not found value %s in enum %T", s, zero)
	}

	return v.(T), nil
}
