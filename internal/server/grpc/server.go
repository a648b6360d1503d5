package grpc

import (
	"fmt"
	"net"

	"github.com/golang/glog"
	"google.golang.org/grpc"

	"github.com/emmett/supersid/internal/app"
)

// Server wraps the gRPC server and the monitor service
type Server struct {
	grpcServer *grpc.Server
	service    *MonitorService
	addr       string
}

// Config holds server configuration
type Config struct {
	Host string
	Port int
}

// Addr returns the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// NewServer creates a gRPC server answering measurement requests with m
func NewServer(cfg Config, m app.Measurer) *Server {
	s := &Server{
		grpcServer: grpc.NewServer(),
		service:    NewMonitorService(m),
		addr:       cfg.Addr(),
	}
	RegisterMonitorServer(s.grpcServer, s.service)
	return s
}

// Start listens on the configured address and serves until Stop
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	glog.Infof("gRPC server listening on %s", lis.Addr())
	return s.Serve(lis)
}

// Serve serves on an existing listener
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
