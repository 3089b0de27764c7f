// Package recovery provides panic recovery for Flight RPC handlers.
// Ensures user-provided stores and projections don't crash the server.
package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// ErrPanic marks an error produced from a recovered panic.
var ErrPanic = errors.New("panic recovered")

// RecoverToValue wraps a function that returns a value and error.
// If the function panics, the panic is logged with its stack and returned
// as an error wrapping ErrPanic together with the zero value.
//
// Example:
//
//	resp, err := recovery.RecoverToValue(logger, "List", func() (*paging.Response, error) {
//	    return service.List(ctx, req)
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()),
			)

			var zero T
			result = zero
			err = fmt.Errorf("%w: %s panicked: %v", ErrPanic, operation, r)
		}
	}()

	return fn()
}
