// Package contextx carries per-call values through a context: the request
// ID assigned at the edge and the policy group the method resolved to.
package contextx

type contextKey int

const (
	requestIDKey contextKey = iota
	groupKey
)
