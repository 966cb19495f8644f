package configs

import (
	"errors"
	"fmt"
	"iter"
)

// Get decodes the first value at path. A missing path yields the zero value and no error.
func Get[T any](loader Loader, path string) (T, error) {
	var value T
	if err := loader.AssignFirst(path, &value); err != nil {
		if errors.Is(err, ErrValueNotFound) {
			return value, nil
		}
		return value, fmt.Errorf("config %s: %w", path, err)
	}
	return value, nil
}

// First is Get for callers that treat a malformed config as fatal.
func First[T any](loader Loader, path string) T {
	value, err := Get[T](loader, path)
	if err != nil {
		panic(err)
	}
	return value
}

// All yields the value at path from every document that defines it, in precedence order.
func All[T any](loader Loader, path string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for value, err := range loader.IterCueValues(path) {
			var v T
			if err == nil {
				err = value.Decode(&v)
			}
			if err != nil {
				yield(v, fmt.Errorf("config %s: %w", path, err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
