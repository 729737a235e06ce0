package result

import (
	"encoding/json"
	"reflect"

	"github.com/zeebo/errs"
)

var (
	// EmptyValue is raised when Unwrap is called on a failed Result.
	EmptyValue = errs.Class("empty value")
	// EmptyError is raised when GetError is called on a successful Result.
	EmptyError = errs.Class("empty error")
)

// Result holds either the value of a successful operation or the error of a
// failed one, never both. The variant is fixed when the Result is created
// with Success or Failure. The zero Result is a failure holding E's zero value.
type Result[T any, E error] struct {
	value T
	err   E
	ok    bool
}

func Success[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, ok: true}
}

func Failure[T any, E error](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// From converts the usual (value, error) return pair into a Result.
func From[T any](value T, err error) Result[T, error] {
	if err != nil {
		return Failure[T](err)
	}
	return Success[T, error](value)
}

func (r Result[T, E]) IsSuccess() bool {
	return r.ok
}

func (r Result[T, E]) IsError() bool {
	return !r.ok
}

// Unwrap returns the success value. It panics with an EmptyValue error if r
// holds an error.
func (r Result[T, E]) Unwrap() T {
	if !r.ok {
		panic(EmptyValue.New("result holds an error: %v", any(r.err)))
	}
	return r.value
}

// GetError returns the held error. It panics with an EmptyError error if r
// holds a value.
func (r Result[T, E]) GetError() E {
	if r.ok {
		panic(EmptyError.New("result holds a value"))
	}
	return r.err
}

// Get returns both sides of the Result; the side that is not held is its
// zero value.
func (r Result[T, E]) Get() (T, E) {
	return r.value, r.err
}

func (r Result[T, E]) MarshalJSON() ([]byte, error) {
	if r.ok {
		return json.Marshal(struct {
			Value T `json:"value"`
		}{Value: r.value})
	}

	var msg *string
	if !isNil(r.err) {
		s := r.err.Error()
		msg = &s
	}
	return json.Marshal(struct {
		Error *string `json:"error"`
	}{Error: msg})
}

// isNil reports whether err is a nil interface or a typed nil, like a nil
// *T stored as E.
func isNil(err error) bool {
	if err == nil {
		return true
	}

	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}
