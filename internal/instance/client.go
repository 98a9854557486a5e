package instance

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"mesh-worker-go/internal/domain"
)

// Client queries instance control endpoints. Every query is bounded by the
// configured timeout in addition to the caller's context.
type Client struct {
	timeout  time.Duration
	dialOpts []grpc.DialOption
	logger   *zap.Logger
}

// NewClient creates a Client. Without dial options, connections are plaintext.
func NewClient(timeout time.Duration, logger *zap.Logger, dialOpts ...grpc.DialOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(dialOpts) == 0 {
		dialOpts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &Client{
		timeout:  timeout,
		dialOpts: dialOpts,
		logger:   logger.Named("instance_client"),
	}
}

// Status asks the instance at addr for its status.
func (c *Client) Status(ctx context.Context, addr string) (*domain.StatusReport, error) {
	out := &domain.StatusReport{}
	if err := c.invoke(ctx, addr, methodStatus, &StatusRequest{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Metrics asks the instance at addr for its metrics.
func (c *Client) Metrics(ctx context.Context, addr string) (*domain.MetricsReport, error) {
	out := &domain.MetricsReport{}
	if err := c.invoke(ctx, addr, methodMetrics, &MetricsRequest{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, addr, method string, req, resp any) error {
	if addr == "" {
		return fmt.Errorf("instance has no address")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := grpc.NewClient(addr, c.dialOpts...)
	if err != nil {
		return fmt.Errorf("failed to create connection to %s: %w", addr, err)
	}
	defer conn.Close()

	start := time.Now()
	err = conn.Invoke(ctx, fullMethod(method), req, resp, grpc.ForceCodec(jsonCodec{}))
	if err != nil {
		c.logger.Debug("instance query failed",
			zap.String("addr", addr),
			zap.String("method", method),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return fmt.Errorf("%s on %s: %w", method, addr, err)
	}
	return nil
}
