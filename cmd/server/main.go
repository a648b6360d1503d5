package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/emmett/supersid/internal/app"
	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/config"
	grpcserver "github.com/emmett/supersid/internal/server/grpc"
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
	host        = flag.String("host", "", "Listen host (default from config)")
	port        = flag.Int("port", 0, "gRPC server port (default from config)")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "INFO")
	flag.Parse()
	defer glog.Flush()

	if *showVersion {
		fmt.Printf("SuperSID gRPC Server v%s\n", Version)
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
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
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

	glog.Infof("SuperSID gRPC Server v%s (commit: %s), monitor %s", Version, GitCommit, cfg.MonitorID)
	server := grpcserver.NewServer(grpcserver.Config{Host: cfg.Server.Host, Port: cfg.Server.Port}, service)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		glog.Info("Shutting down...")
		server.Stop()
	}()

	if err := server.Start(); err != nil {
		glog.Errorf("server error: %s", err)
		glog.Flush()
		os.Exit(1)
	}
}
