// internal/domain/notification/repository.go
package notification

import "context"

// Journal records delivered notifications. It is write-mostly: the bot never
// restores its state from it.
type Journal interface {
	Append(ctx context.Context, e *Entry) error
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
}
