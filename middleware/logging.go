package middleware

import (
	"context"
	"log"
	"time"
)

// Logging records how long the wrapped handler took and whether it
// returned an error. labelFn derives a short label from v (e.g. the
// outbound frame's command verb) for the log line.
func Logging[T any](logger *log.Logger, labelFn func(v T) string) Middleware[T] {
	return func(next HandlerFunc[T]) HandlerFunc[T] {
		return func(ctx context.Context, v T) error {
			start := time.Now()
			err := next(ctx, v)
			logger.Printf("%s duration=%s err=%v", labelFn(v), time.Since(start), err)
			return err
		}
	}
}
