// Package culvers assembles the flavor-of-the-day gRPC server: a
// [grpc.Server] wrapped with a fixed-priority interceptor chain, the
// fotd.FlavorService registration, the standard gRPC health service and a
// Prometheus metrics handler.
//
//	srv := culvers.NewServer(culvers.DefaultOptions(log)...)
//	srv.RegisterFlavorService(rpc.NewHandler(svc))
//	err := srv.Serve(ctx, lis)
package culvers
