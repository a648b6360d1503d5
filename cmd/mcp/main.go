package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/emmett/supersid/internal/app"
	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/config"
	mcpserver "github.com/emmett/supersid/internal/server/mcp"
	"github.com/emmett/supersid/internal/spectral"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.supersidrc or /etc/supersid/config.yaml)")
	duration    = flag.Int("duration", 0, "Default capture length in milliseconds")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	// stdout carries the protocol
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "ERROR")
	flag.Parse()
	defer glog.Flush()

	if *showVersion {
		fmt.Printf("SuperSID MCP v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		glog.Warningf("failed to load config, using defaults: %s", err)
		cfg = config.DefaultConfig()
	}
	if *duration > 0 {
		cfg.Analysis.DurationMs = *duration
	}

	driver, err := audio.NewMalgoDriver()
	if err != nil {
		glog.Exitf("unable to initialise audio: %s", err)
	}
	defer driver.Close()

	service, err := app.NewMeasurementService(cfg, driver, spectral.Welch{})
	if err != nil {
		glog.Exitf("invalid configuration: %s", err)
	}

	server := mcpserver.NewServer(mcpserver.Config{
		ServerName:    "supersid",
		ServerVersion: Version,
	}, service)
	if err := server.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
