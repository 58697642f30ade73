package testutil

import (
	"net/http"
	"time"

	"datacustody/pkg/requestcontext"
)

// WithActor adds an authenticated actor to the request context, simulating
// what the auth middleware does for authenticated requests.
func WithActor(req *http.Request, actorID int64, admin bool) *http.Request {
	ctx := requestcontext.WithActorID(req.Context(), actorID)
	ctx = requestcontext.WithAdmin(ctx, admin)
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock, simulating the request time
// middleware with a fixed timestamp.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithClientIP adds a requester IP to the request context.
func WithClientIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, req.UserAgent()))
}
