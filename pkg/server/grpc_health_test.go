package server

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func newLocalListener() (net.Listener, error) {
	return net.Listen("tcp", "127.0.0.1:0")
}

type toggleChecker struct {
	mu  sync.Mutex
	err error
}

func (c *toggleChecker) CheckHealth(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *toggleChecker) set(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func checkStatus(t *testing.T, g *GRPCHealthServer, service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := g.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	return resp.Status
}

func TestGRPCHealth_Probe(t *testing.T) {
	checker := &toggleChecker{}
	g := NewGRPCHealthServer(checker, time.Minute, quietLogger())

	if got := checkStatus(t, g, ""); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING before first probe, got %s", got)
	}

	if !g.Probe(context.Background()) {
		t.Error("expected healthy probe")
	}
	if got := checkStatus(t, g, HealthServiceName); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %s", got)
	}

	checker.set(errors.New("provider down"))
	if g.Probe(context.Background()) {
		t.Error("expected unhealthy probe")
	}
	if got := checkStatus(t, g, ""); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING, got %s", got)
	}
}

func TestGRPCHealth_ServeAndStop(t *testing.T) {
	g := NewGRPCHealthServer(&toggleChecker{}, 10*time.Millisecond, quietLogger())

	lis, err := newLocalListener()
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- g.Serve(lis) }()

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		g.Run(ctx)
		close(runDone)
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := grpc_health_v1.NewHealthClient(conn)

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
		if err == nil && resp.Status == grpc_health_v1.HealthCheckResponse_SERVING {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never reported SERVING (last err %v)", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	<-runDone

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	g.Stop(stopCtx)

	if err := <-serveErr; err != nil {
		t.Errorf("expected nil after stop, got %v", err)
	}
}
