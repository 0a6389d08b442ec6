package transport

import (
	"context"

	"google.golang.org/grpc"
)

// serviceName is the fully qualified grpc service path. There is no
// .proto file behind it — SchedulerServer is called through a
// hand-written ServiceDesc so the json codec (see codec.go) carries
// plain Go structs instead of generated protobuf messages.
const serviceName = "pbssched.transport.SchedulerService"

// FetchSnapshotRequest is the (empty) request for FetchSnapshot.
type FetchSnapshotRequest struct{}

// SubmitDecisionsRequest carries one cycle's decisions back to the
// caller that supplied the snapshot.
type SubmitDecisionsRequest struct {
	Decisions []DecisionWire `json:"decisions"`
}

// SubmitDecisionsResponse acknowledges a decision submission.
type SubmitDecisionsResponse struct {
	Accepted bool `json:"accepted"`
}

// SchedulerServer is implemented by whatever holds the live *types.Server
// snapshot and the most recent cycle.Output — normally the daemon in
// cmd/pbsched.
type SchedulerServer interface {
	FetchSnapshot(ctx context.Context, req *FetchSnapshotRequest) (*SnapshotDTO, error)
	SubmitDecisions(ctx context.Context, req *SubmitDecisionsRequest) (*SubmitDecisionsResponse, error)
}

// RegisterSchedulerServer wires srv into a grpc.Server under the hand
// written ServiceDesc below.
func RegisterSchedulerServer(s *grpc.Server, srv SchedulerServer) {
	s.RegisterService(&schedulerServiceDesc, srv)
}

func schedulerFetchSnapshotHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FetchSnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).FetchSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/FetchSnapshot"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SchedulerServer).FetchSnapshot(ctx, req.(*FetchSnapshotRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func schedulerSubmitDecisionsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SubmitDecisionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SchedulerServer).SubmitDecisions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: serviceName + "/SubmitDecisions"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SchedulerServer).SubmitDecisions(ctx, req.(*SubmitDecisionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var schedulerServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SchedulerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FetchSnapshot", Handler: schedulerFetchSnapshotHandler},
		{MethodName: "SubmitDecisions", Handler: schedulerSubmitDecisionsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/transport/service.go",
}
