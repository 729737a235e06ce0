package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/constraints"
)

func Duration[S ~string](s S, t time.Duration) Field {
	return zap.Duration(string(s), t)
}

func Any[S ~string](s S, v any) Field {
	return zap.Any(string(s), v)
}

func Int[S ~string, T constraints.Signed](s S, v T) Field {
	return zap.Int64(string(s), int64(v))
}

func Bool[S ~string](s S, v bool) Field {
	return zap.Bool(string(s), v)
}

func Error(err error) Field {
	return zap.Error(err)
}

func String[U, V ~string](s U, v V) Field {
	return zap.String(string(s), string(v))
}

// Stringer logs v through its String method, e.g. a bluetooth address.
func Stringer[S ~string](s S, v fmt.Stringer) Field {
	return zap.Stringer(string(s), v)
}

func Strings[S ~string](s S, v []string) Field {
	return zap.Strings(string(s), v)
}
