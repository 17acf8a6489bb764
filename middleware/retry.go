package middleware

import (
	"context"
	"log"
	"strings"
	"time"
)

// Retry retries the wrapped handler with exponential backoff when its
// error looks transient (a connection refusal or a timeout). Nothing in
// this module installs it. Wrapped around command emission it would
// write the same frame again on every retry.
func Retry[T any](maxRetries int, baseDelay time.Duration) Middleware[T] {
	return func(next HandlerFunc[T]) HandlerFunc[T] {
		return func(ctx context.Context, v T) error {
			err := next(ctx, v)
			for i := 0; i < maxRetries; i++ {
				if err == nil {
					return nil
				}
				if !isRetryable(err) {
					return err
				}
				log.Printf("middleware: retry attempt %d after error: %v", i+1, err)
				select {
				case <-time.After(baseDelay * time.Duration(1<<i)):
				case <-ctx.Done():
					return ctx.Err()
				}
				err = next(ctx, v)
			}
			return err
		}
	}
}

func isRetryable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "connection refused")
}
