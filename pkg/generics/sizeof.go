package generics

import (
	"reflect"
)

// SizeOf returns the size of the type T in bytes. It is used to turn element
// counts into byte counts before allocating.
func SizeOf[T any]() int {
	return int(reflect.TypeFor[T]().Size())
}
