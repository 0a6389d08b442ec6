package transport

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Server hosts a SchedulerServer over grpc using the json content
// subtype as the sole codec — there is no protobuf fallback since no
// generated message type exists for these RPCs.
type Server struct {
	grpc *grpc.Server
}

// NewServer builds a grpc.Server bound to impl and registers it under
// the json codec.
func NewServer(impl SchedulerServer, opts ...grpc.ServerOption) *Server {
	opts = append(opts, grpc.ForceServerCodec(encoding.GetCodec(codecName)))
	s := grpc.NewServer(opts...)
	RegisterSchedulerServer(s, impl)
	return &Server{grpc: s}
}

// Serve listens on addr and blocks serving RPCs until the listener or
// server is stopped.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.grpc.Serve(lis)
}

// Stop gracefully drains in-flight RPCs before returning.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}
