package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Additional-Code/procurement/internal/config"
	"github.com/Additional-Code/procurement/internal/testutil"
	"github.com/Additional-Code/procurement/pkg/errorbank"
)

func TestToStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		code codes.Code
		msg  string
	}{
		"not found":     {errorbank.NotFound("Purchase order 7 not found."), codes.NotFound, "Purchase order 7 not found."},
		"business rule": {errorbank.BusinessRule("PO Number 'PO-1' already exists."), codes.AlreadyExists, "PO Number 'PO-1' already exists."},
		"validation":    {errorbank.Validation("invalid", map[string][]string{"poNumber": {"poNumber is required"}}), codes.InvalidArgument, "invalid"},
		"internal":      {errorbank.Internal("db exploded"), codes.Internal, "internal error"},
		"plain":         {errors.New("socket closed"), codes.Internal, "internal error"},
		"status":        {status.Error(codes.Unavailable, "draining"), codes.Unavailable, "draining"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			st, ok := status.FromError(toStatus(tc.err))
			require.True(t, ok)
			assert.Equal(t, tc.code, st.Code())
			assert.Equal(t, tc.msg, st.Message())
		})
	}
	assert.NoError(t, toStatus(nil))
}

func TestNewServer_HealthService(t *testing.T) {
	res := NewServer(zap.NewNop())
	listener := bufconn.Listen(1 << 20)
	go func() { _ = res.Server.Serve(listener) }()
	t.Cleanup(res.Server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	res.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRun_DisabledRegistersNoHooks(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	res := NewServer(zap.NewNop())

	Run(RunParams{
		Lifecycle: lc,
		Config:    config.Config{GRPC: config.GRPC{Enabled: false, Port: 1}},
		Server:    res.Server,
		Health:    res.Health,
		Logger:    zap.NewNop(),
	})

	lc.RequireStart()
	lc.RequireStop()
}

func TestServingStatus_FollowsDatabase(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(ctx, nil))

	conns := testutil.NewDatabase(t)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(ctx, conns))

	require.NoError(t, conns.Writer.Close())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(ctx, conns))
}
