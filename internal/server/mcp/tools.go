package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/supersid/internal/app"
	"github.com/emmett/supersid/internal/output"
)

type MeasureArgs struct {
	DurationMs int `json:"duration_ms,omitempty" jsonschema:"Capture length in milliseconds (default: configured duration)"`
}

type MeasureResult struct {
	MonitorID string               `json:"monitor_id"`
	Start     time.Time            `json:"start"`
	End       time.Time            `json:"end"`
	Channels  []output.Measurement `json:"channels"`
}

type StationBinsArgs struct {
	FreqStep float64 `json:"freq_step" jsonschema:"Spacing between spectrum bins in Hz"`
	Callsign string  `json:"callsign,omitempty" jsonschema:"Only report this station"`
}

type StationBin struct {
	Callsign     string  `json:"callsign"`
	Frequency    int     `json:"frequency"`
	Bin          int     `json:"bin"`
	BinFrequency float64 `json:"bin_frequency"`
}

type StationBinsResult struct {
	FreqStep float64      `json:"freq_step"`
	Stations []StationBin `json:"stations"`
}

type ListDevicesArgs struct{}

type Device struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Direction string `json:"direction"`
	IsDefault bool   `json:"is_default"`
}

type ListDevicesResult struct {
	Devices []Device `json:"devices"`
}

func (s *Server) handleMeasureSpectrum(ctx context.Context, req *sdk.CallToolRequest, args MeasureArgs) (*sdk.CallToolResult, MeasureResult, error) {
	if args.DurationMs < 0 {
		return nil, MeasureResult{}, fmt.Errorf("duration_ms must be positive, got %d", args.DurationMs)
	}
	if args.DurationMs > app.MaxRequestDurationMs {
		return nil, MeasureResult{}, fmt.Errorf("duration_ms must be at most %d, got %d", app.MaxRequestDurationMs, args.DurationMs)
	}

	r, err := s.measurer.Measure(ctx, args.DurationMs)
	if err != nil {
		return nil, MeasureResult{}, fmt.Errorf("measurement failed: %w", err)
	}

	res := MeasureResult{
		MonitorID: r.MonitorID,
		Start:     r.Start,
		End:       r.End,
		Channels:  make([]output.Measurement, len(r.Channels)),
	}
	for i, ch := range r.Channels {
		res.Channels[i] = ch.Measurement
	}
	return nil, res, nil
}

func (s *Server) handleStationBins(ctx context.Context, req *sdk.CallToolRequest, args StationBinsArgs) (*sdk.CallToolResult, StationBinsResult, error) {
	res := StationBinsResult{FreqStep: args.FreqStep, Stations: []StationBin{}}
	for _, st := range s.measurer.Stations() {
		if args.Callsign != "" && !strings.EqualFold(st.Callsign, args.Callsign) {
			continue
		}
		bin, err := st.Bin(args.FreqStep)
		if err != nil {
			return nil, StationBinsResult{}, fmt.Errorf("failed to map %s: %w", st.Callsign, err)
		}
		res.Stations = append(res.Stations, StationBin{
			Callsign:     st.Callsign,
			Frequency:    st.Frequency,
			Bin:          bin,
			BinFrequency: float64(bin) * args.FreqStep,
		})
	}
	if args.Callsign != "" && len(res.Stations) == 0 {
		return nil, StationBinsResult{}, fmt.Errorf("station %q is not configured", args.Callsign)
	}
	return nil, res, nil
}

func (s *Server) handleListDevices(ctx context.Context, req *sdk.CallToolRequest, args ListDevicesArgs) (*sdk.CallToolResult, ListDevicesResult, error) {
	devices, err := s.measurer.Devices()
	if err != nil {
		return nil, ListDevicesResult{}, fmt.Errorf("failed to list devices: %w", err)
	}

	res := ListDevicesResult{Devices: make([]Device, len(devices))}
	for i, d := range devices {
		res.Devices[i] = Device{
			ID:        d.ID,
			Name:      d.Name,
			Direction: d.Direction.String(),
			IsDefault: d.IsDefault,
		}
	}
	return nil, res, nil
}
