package transport

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"actionkit/internal/actions"
)

// Engine errors restored on the client so errors.Is works across the wire.
var sentinels = []error{
	actions.ErrInlineActionInClient,
	actions.ErrNotAsync,
	actions.ErrVisitorReused,
}

type Client struct {
	conn *grpc.ClientConn
}

func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("transport: engine not serving (%s)", resp.GetStatus())
	}
	return nil
}

// Rewrite returns the rewritten source.
func (c *Client) Rewrite(ctx context.Context, req RewriteRequest) ([]byte, error) {
	in, err := req.toStruct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, rewriteMethod, in, out); err != nil {
		return nil, fromStatus(err)
	}
	return []byte(out.GetFields()["source"].GetStringValue()), nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	for _, s := range sentinels {
		if rest, found := strings.CutPrefix(msg, s.Error()); found {
			return fmt.Errorf("%w%s", s, rest)
		}
	}
	return err
}
