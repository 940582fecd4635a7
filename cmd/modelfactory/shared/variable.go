package shared

import (
	"fmt"
	"strings"
)

type Required interface {
	Name() string
	IsSet() bool
}

// Validate returns an error naming every variable that was not set.
func Validate(vars ...Required) error {
	missing := []string{}
	for _, s := range vars {
		if !s.IsSet() {
			missing = append(missing, s.Name())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(missing) == 1 {
		return fmt.Errorf(`required setting "%s" not set`, missing[0])
	}
	return fmt.Errorf(`required settings "%s" not set`, strings.Join(missing, `", "`))
}

// NewVariable takes the first non-zero value, so values should be passed in
// order of precedence.
func NewVariable[T comparable](name string, values ...T) Variable[T] {
	var zero T
	for _, v := range values {
		if v != zero {
			return Variable[T]{name: name, value: v}
		}
	}
	return Variable[T]{name: name}
}

type Variable[T comparable] struct {
	name  string
	value T
}

func (s Variable[T]) Name() string {
	return s.name
}

func (s Variable[T]) IsSet() bool {
	var zero T
	return s.value != zero
}

func (s Variable[T]) Value() T {
	return s.value
}
