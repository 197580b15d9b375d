package email

import "context"

type attemptKey struct{}

// WithAttemptID tags ctx with the id of the current download attempt
func WithAttemptID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, attemptKey{}, id)
}

// AttemptID returns the attempt id carried by ctx, or ""
func AttemptID(ctx context.Context) string {
	id, _ := ctx.Value(attemptKey{}).(string)
	return id
}
