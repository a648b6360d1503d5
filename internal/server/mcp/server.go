package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/supersid/internal/app"
)

type Config struct {
	ServerName    string
	ServerVersion string
}

type Server struct {
	config    Config
	mcpServer *sdk.Server
	measurer  app.Measurer
}

func NewServer(cfg Config, m app.Measurer) *Server {
	s := &Server{
		config:   cfg,
		measurer: m,
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()

	return s
}

// Start serves over stdin/stdout until the client disconnects
func (s *Server) Start(ctx context.Context) error {
	return s.Run(ctx, &sdk.StdioTransport{})
}

// Run serves over an arbitrary transport
func (s *Server) Run(ctx context.Context, t sdk.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "measure_spectrum",
		Description: "Record the sound card and report the VLF power spectrum peak, noise floor and station levels per channel",
	}, s.handleMeasureSpectrum)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "station_bins",
		Description: "Map the configured station frequencies onto spectrum bins for a frequency step",
	}, s.handleStationBins)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "list_devices",
		Description: "List the capture and playback sound card devices",
	}, s.handleListDevices)
}
