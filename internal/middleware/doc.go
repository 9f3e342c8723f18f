// Package middleware holds the chi middleware chain of the HTTP server:
// request IDs, request logging, tracing and HTTP metrics, rate limiting,
// body size and content type checks, CORS and security headers.
//
// Errors detected here are written through apierrors.ErrorHandler so every
// rejection uses the same problem+json body as the handlers.
package middleware
