/*
Package transport exposes the scheduler core over grpc so a daemon
process can hand a *types.Server snapshot to a remote scheduling pass
and receive back the resulting cycle.Decision list, without requiring a
protoc toolchain to generate message types.

Rather than compiling .proto files into Go structs, this package
registers a grpc "json" content-subtype codec (see codec.go) that
marshals plain Go structs with encoding/json, and hand-writes a
grpc.ServiceDesc (see service.go) that dispatches onto a SchedulerServer
implementation. The wire types in wire.go are flattened versions of the
pkg/types object graph: *types.Node, *types.Queue and *types.ResourceResv
reference each other through pointers that can cycle (a queue with node
affinity holds Nodes []*Node, and each of those nodes holds Queue
*Queue pointing back), which a tree-walking JSON marshaler cannot
safely traverse directly. ToWire/FromWire rebuild that graph from flat
rank/name references instead, the same way pkg/universe and
pkg/placement already address nodes by rank rather than by pointer.

# Usage

	srv := transport.NewServer(myImpl)
	go srv.Serve(":40001")

	client, _ := transport.Dial("scheduler.example:40001", transport.WithPollRate(2, 1))
	snapshot, _ := client.Poll(ctx)
	server, _ := transport.FromWire(registry, *snapshot)
*/
package transport
