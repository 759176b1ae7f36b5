package core

import (
	"cmp"
	"slices"

	"google.golang.org/grpc"
)

// middleware is a named unary interceptor with a deterministic position.
// Lower Order values run first.
type middleware struct {
	Name  string
	Unary grpc.UnaryServerInterceptor
	Order int
}

// MiddlewareBuilder collects interceptors and produces them sorted for
// chaining.
type MiddlewareBuilder struct {
	entries []middleware
}

// Add registers an interceptor at the given order. A nil interceptor is
// ignored. Registering the same name twice replaces the earlier entry.
func (b *MiddlewareBuilder) Add(order int, name string, unary grpc.UnaryServerInterceptor) {
	if unary == nil {
		return
	}
	if name != "" {
		b.entries = slices.DeleteFunc(b.entries, func(m middleware) bool { return m.Name == name })
	}
	b.entries = append(b.entries, middleware{Name: name, Unary: unary, Order: order})
}

// Names returns the registered names in execution order.
func (b *MiddlewareBuilder) Names() []string {
	names := make([]string, 0, len(b.entries))
	for _, m := range b.sorted() {
		names = append(names, m.Name)
	}
	return names
}

// Build returns the interceptors sorted by Order. Entries sharing an order
// keep their registration order.
func (b *MiddlewareBuilder) Build() []grpc.UnaryServerInterceptor {
	sorted := b.sorted()
	out := make([]grpc.UnaryServerInterceptor, 0, len(sorted))
	for _, m := range sorted {
		out = append(out, m.Unary)
	}
	return out
}

func (b *MiddlewareBuilder) sorted() []middleware {
	s := slices.Clone(b.entries)
	slices.SortStableFunc(s, func(a, c middleware) int {
		return cmp.Compare(a.Order, c.Order)
	})
	return s
}
