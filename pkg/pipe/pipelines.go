package pipe

import (
	"sync"

	"github.com/Philanthropists/bluetooth-manager/internal/types/result"
)

// Ensures that the goroutine is finished on done being closed
func OrDone[T any](done <-chan struct{}, c <-chan T) <-chan T {
	stream := make(chan T)

	go func() {
		defer close(stream)

		for {
			select {
			case <-done:
				return
			case v, ok := <-c:
				if !ok {
					return
				}
				select {
				case stream <- v:
				case <-done:
				}
			}
		}
	}()

	return stream
}

// Maps from channel of type A to a channel of type B concurrently
func ConcurrentMap[A, B any](done <-chan struct{}, coroutines int, in <-chan A, mapper func(A) result.Result[B, error]) <-chan result.Result[B, error] {
	if coroutines <= 0 {
		coroutines = 1
	}

	out := make(chan result.Result[B, error], coroutines)

	var wg sync.WaitGroup
	wg.Add(coroutines)
	for i := 0; i < coroutines; i++ {
		go func() {
			defer wg.Done()

			for val := range OrDone(done, in) {
				select {
				case <-done:
					return
				case out <- mapper(val):
				}
			}
		}()
	}

	go func() {
		defer close(out)
		wg.Wait()
	}()

	return out
}

// Drains the channel, splitting successful values from failures
func Collect[T any](done <-chan struct{}, in <-chan result.Result[T, error]) ([]T, []error) {
	var (
		values []T
		errors []error
	)

	for r := range OrDone(done, in) {
		if r.IsSuccess() {
			values = append(values, r.Unwrap())
		} else {
			errors = append(errors, r.GetError())
		}
	}

	return values, errors
}
