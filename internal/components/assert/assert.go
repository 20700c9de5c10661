// Package assert panics on programmer errors found while wiring components
// together, it is never used on user input.
package assert

import "fmt"

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

func AtLeast[T int | int64 | float64](value, minimum T) {
	if value < minimum {
		panic(fmt.Sprintf("expected %v to be at least %v", value, minimum))
	}
}
