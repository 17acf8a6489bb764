package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimit throttles calls to the wrapped handler using a token-bucket
// limiter: tokens refill at r per second up to burst, and a call with no
// token available is rejected immediately rather than queued — a SEND
// that would overrun the broker fails fast instead of buffering.
//
// The limiter is created once, in the outer closure, and shared across
// every call through the returned middleware; creating it per-call would
// hand out a fresh full bucket every time and defeat the limit entirely.
func RateLimit[T any](r float64, burst int) Middleware[T] {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc[T]) HandlerFunc[T] {
		return func(ctx context.Context, v T) error {
			if !limiter.Allow() {
				return fmt.Errorf("middleware: rate limit exceeded")
			}
			return next(ctx, v)
		}
	}
}
