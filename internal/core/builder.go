package core

import "google.golang.org/grpc"

// BuildServerOptions turns the collected interceptors into grpc.ServerOption
// values for grpc.NewServer, followed by any extra options.
func BuildServerOptions(
	unary []grpc.UnaryServerInterceptor,
	chain func([]grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor,
	extra ...grpc.ServerOption,
) []grpc.ServerOption {
	var opts []grpc.ServerOption
	if u := chain(unary); u != nil {
		opts = append(opts, grpc.UnaryInterceptor(u))
	}
	return append(opts, extra...)
}
