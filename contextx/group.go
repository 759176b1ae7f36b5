package contextx

import "context"

// WithGroup records the policy group a call resolved to.
func WithGroup(ctx context.Context, group string) context.Context {
	return context.WithValue(ctx, groupKey, group)
}

// GroupFromContext returns the policy group stored in ctx, or "".
func GroupFromContext(ctx context.Context) string {
	g, _ := ctx.Value(groupKey).(string)
	return g
}
