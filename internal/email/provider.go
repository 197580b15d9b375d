package email

import "context"

// LatestFinder is implemented by backends that can locate the newest
// message in the Inbox. It backs the --latest host adapter.
type LatestFinder interface {
	Latest(ctx context.Context, token string) (Item, error)
}

// DefaultSubject is used wherever a message has no subject
const DefaultSubject = "(no subject)"
