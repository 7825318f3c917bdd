package domain

import "context"

// TimelineSource fetches the latest batch of posts for the target account.
type TimelineSource interface {
	Latest(ctx context.Context) (*Timeline, error)
}

// Publisher submits final text as a new post.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Notifier delivers operator-facing notifications. Implementations must be
// best-effort: a notification failure never affects the pipeline outcome.
type Notifier interface {
	Notify(ctx context.Context, text string)
}
