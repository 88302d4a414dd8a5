package app

import "context"

type contextKey string

const cycleIDKey contextKey = "cycle_id"

// WithCycleID tags ctx with the id of the running poll cycle.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleIDFrom returns the poll cycle id carried by ctx, or "".
func CycleIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(cycleIDKey).(string)
	return id
}
