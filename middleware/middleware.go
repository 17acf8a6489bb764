// Package middleware implements a generic onion-model middleware chain.
// The client wires it around outbound command emission (see
// client.WithCommandMiddleware); nothing in this module wraps broker
// dialing with it.
//
// Onion model execution order:
//
//	Chain(A, B, C)(handler)  →  A(B(C(handler)))
//
//	Request:   A.before → B.before → C.before → handler
//	Response:  handler → C.after → B.after → A.after
//
// Each middleware can do pre-processing, call next to pass control
// along, do post-processing, or short-circuit by returning without
// calling next (e.g. rate limiting).
package middleware

import "context"

// HandlerFunc is the shape of both the business handler and every
// middleware-wrapped handler for a value of type T — an outbound
// frame.Frame or a no-argument dial attempt (T = struct{}).
type HandlerFunc[T any] func(ctx context.Context, v T) error

// Middleware takes a handler and returns a new handler wrapping it. This
// is the decorator pattern: each middleware adds behavior around the
// next handler in the chain.
type Middleware[T any] func(next HandlerFunc[T]) HandlerFunc[T]

// Chain composes multiple middlewares into one. It builds the chain from
// right to left so the first middleware listed is the outermost layer
// (runs first on the way in, last on the way out).
func Chain[T any](middlewares ...Middleware[T]) Middleware[T] {
	return func(next HandlerFunc[T]) HandlerFunc[T] {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
