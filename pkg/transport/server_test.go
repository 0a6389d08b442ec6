package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/openpbs/pbssched/pkg/types"
)

type fakeSchedulerServer struct {
	snapshot  SnapshotDTO
	submitted []DecisionWire
}

func (f *fakeSchedulerServer) FetchSnapshot(ctx context.Context, req *FetchSnapshotRequest) (*SnapshotDTO, error) {
	return &f.snapshot, nil
}

func (f *fakeSchedulerServer) SubmitDecisions(ctx context.Context, req *SubmitDecisionsRequest) (*SubmitDecisionsResponse, error) {
	f.submitted = append(f.submitted, req.Decisions...)
	return &SubmitDecisionsResponse{Accepted: true}, nil
}

func dialBufconn(t *testing.T, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()
	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.Dial() }
	conn, err := grpc.NewClient("passthrough:bufconn",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	require.NoError(t, err)
	return conn
}

func TestServerClientFetchSnapshotAndSubmitDecisions(t *testing.T) {
	impl := &fakeSchedulerServer{
		snapshot: SnapshotDTO{
			Time:   time.Date(2026, 7, 29, 8, 0, 0, 0, time.UTC),
			Policy: types.Policy{FairShare: true, BackfillDepth: 10},
			Queues: []QueueWire{{Rank: 0, Name: "workq", Enabled: true}},
		},
	}

	lis := bufconn.Listen(1024 * 1024)
	srv := NewServer(impl)
	go func() {
		_ = srv.grpc.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn := dialBufconn(t, lis)
	t.Cleanup(func() { conn.Close() })

	client := &Client{conn: conn, limiter: nil}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply := new(SnapshotDTO)
	require.NoError(t, conn.Invoke(ctx, "/"+serviceName+"/FetchSnapshot", new(FetchSnapshotRequest), reply, grpc.CallContentSubtype(codecName)))
	assert.Equal(t, "workq", reply.Queues[0].Name)
	assert.True(t, reply.Policy.FairShare)

	resp, err := client.SubmitDecisions(ctx, []DecisionWire{{JobName: "1.server", Outcome: "run"}})
	require.NoError(t, err)
	assert.True(t, resp.Accepted)
	require.Len(t, impl.submitted, 1)
	assert.Equal(t, "1.server", impl.submitted[0].JobName)
}
