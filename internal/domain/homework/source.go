package homework

import "context"

// Source fetches the raw homework statuses changed since cursor (unix seconds).
// The returned value is decoded JSON of unknown shape; Validate makes sense of it.
type Source interface {
	Fetch(ctx context.Context, cursor int64) (any, error)
}
