package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/emmett/supersid/internal/app"
	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/output"
	"github.com/emmett/supersid/internal/supersid"
)

const serviceName = "supersid.Monitor"

// MonitorServer is the server API of the supersid.Monitor service.
// Messages are well-known protobuf types so no generated code is needed.
type MonitorServer interface {
	// Measure records one capture. The request may carry "duration_ms".
	Measure(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Stations returns the configured stations
	Stations(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterMonitorServer registers srv on s
func RegisterMonitorServer(s grpc.ServiceRegistrar, srv MonitorServer) {
	s.RegisterService(&monitorServiceDesc, srv)
}

var monitorServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Measure", Handler: measureHandler},
		{MethodName: "Stations", Handler: stationsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "supersid/monitor.proto",
}

func measureHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitorServer).Measure(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Measure"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).Measure(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func stationsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitorServer).Stations(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Stations"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).Stations(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// MonitorClient is the client API of the supersid.Monitor service
type MonitorClient struct {
	cc grpc.ClientConnInterface
}

// NewMonitorClient creates a client on cc
func NewMonitorClient(cc grpc.ClientConnInterface) *MonitorClient {
	return &MonitorClient{cc: cc}
}

// Measure requests one capture of durationMs (the server default if zero)
func (c *MonitorClient) Measure(ctx context.Context, durationMs int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"duration_ms": durationMs})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Measure", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Stations requests the configured stations
func (c *MonitorClient) Stations(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Stations", new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// MonitorService implements MonitorServer on top of a Measurer
type MonitorService struct {
	measurer app.Measurer
}

// NewMonitorService creates a new monitor service
func NewMonitorService(m app.Measurer) *MonitorService {
	return &MonitorService{measurer: m}
}

type reportMessage struct {
	MonitorID string               `json:"monitor_id"`
	Start     time.Time            `json:"start"`
	End       time.Time            `json:"end"`
	Channels  []output.Measurement `json:"channels"`
}

type stationsMessage struct {
	Stations []supersid.StationConfig `json:"stations"`
}

// Measure implements MonitorServer
func (s *MonitorService) Measure(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	durationMs := 0
	if v, ok := in.GetFields()["duration_ms"]; ok {
		n := v.GetNumberValue()
		if n != float64(int(n)) {
			return nil, status.Errorf(codes.InvalidArgument, "duration_ms must be an integer, got %v", n)
		}
		durationMs = int(n)
	}
	if durationMs < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "duration_ms must be positive, got %d", durationMs)
	}
	if durationMs > app.MaxRequestDurationMs {
		return nil, status.Errorf(codes.InvalidArgument, "duration_ms must be at most %d, got %d", app.MaxRequestDurationMs, durationMs)
	}

	r, err := s.measurer.Measure(ctx, durationMs)
	if err != nil {
		return nil, status.Error(errorCode(err), err.Error())
	}

	msg := reportMessage{
		MonitorID: r.MonitorID,
		Start:     r.Start,
		End:       r.End,
		Channels:  make([]output.Measurement, len(r.Channels)),
	}
	for i, ch := range r.Channels {
		msg.Channels[i] = ch.Measurement
	}
	return toStruct(msg)
}

// Stations implements MonitorServer
func (s *MonitorService) Stations(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(stationsMessage{Stations: s.measurer.Stations()})
}

func errorCode(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, audio.ErrInvalidDuration):
		return codes.InvalidArgument
	case errors.Is(err, audio.ErrConfiguration):
		return codes.FailedPrecondition
	default:
		return codes.Unavailable
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to convert response: %v", err))
	}
	return out, nil
}
