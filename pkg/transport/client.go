package transport

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client calls a SchedulerServer over grpc using the json content
// subtype registered in codec.go.
type Client struct {
	conn    *grpc.ClientConn
	limiter *rate.Limiter
}

// ClientOption configures Dial.
type ClientOption func(*clientOptions)

type clientOptions struct {
	pollsPerSecond float64
	burst          int
	insecure       bool
}

// WithPollRate bounds how often Poll will actually issue a FetchSnapshot
// RPC; callers that invoke Poll in a tight loop are throttled to ratePerSec
// requests/second with the given burst allowance instead of hammering the
// server once a connection hiccup clears.
func WithPollRate(ratePerSec float64, burst int) ClientOption {
	return func(o *clientOptions) {
		o.pollsPerSecond = ratePerSec
		o.burst = burst
	}
}

// Dial connects to a scheduler transport endpoint at addr.
func Dial(addr string, opts ...ClientOption) (*Client, error) {
	o := clientOptions{pollsPerSecond: 1, burst: 1, insecure: true}
	for _, opt := range opts {
		opt(&o)
	}

	var dialOpts []grpc.DialOption
	if o.insecure {
		dialOpts = append(dialOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	dialOpts = append(dialOpts, grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)))

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return &Client{
		conn:    conn,
		limiter: rate.NewLimiter(rate.Limit(o.pollsPerSecond), o.burst),
	}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Poll blocks until the client's rate limiter admits a request, then
// fetches the current snapshot.
func (c *Client) Poll(ctx context.Context) (*SnapshotDTO, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := new(FetchSnapshotRequest)
	reply := new(SnapshotDTO)
	method := "/" + serviceName + "/FetchSnapshot"
	if err := c.conn.Invoke(ctx, method, req, reply, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	return reply, nil
}

// SubmitDecisions reports the outcome of one cycle back to the server.
func (c *Client) SubmitDecisions(ctx context.Context, decisions []DecisionWire) (*SubmitDecisionsResponse, error) {
	req := &SubmitDecisionsRequest{Decisions: decisions}
	reply := new(SubmitDecisionsResponse)
	method := "/" + serviceName + "/SubmitDecisions"
	if err := c.conn.Invoke(ctx, method, req, reply, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, fmt.Errorf("submit decisions: %w", err)
	}
	return reply, nil
}
