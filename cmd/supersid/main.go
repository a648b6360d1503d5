package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/emmett/supersid/internal/app"
	"github.com/emmett/supersid/internal/audio"
	"github.com/emmett/supersid/internal/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file (default: ~/.supersidrc or /etc/supersid/config.yaml)")
	listDevices  = flag.Bool("list-devices", false, "List all available sound card devices")
	audioDevice  = flag.String("device", "", "Sound card device id or name (use --list-devices to see available devices)")
	sampleFormat = flag.String("sample-format", "", "Sample format: B16, B24, B32")
	samplingRate = flag.Int("rate", 0, "Sampling rate in Hz: 44100, 48000, 96000, 192000")
	channels     = flag.Int("channels", 0, "Number of channels to capture")
	outputFormat = flag.String("format", "console", "Output format: console, json, text")
	outputFile   = flag.String("output", "", "Output file (default: stdout)")
	plotDir      = flag.String("plot-dir", "", "Directory for one spectrum PNG per channel and capture")
	count        = flag.Int("count", 0, "Number of captures, 0 runs until interrupted")
	interval     = flag.Duration("interval", 0, "Time between captures (default from config)")
	duration     = flag.Int("duration", 0, "Capture length in milliseconds (default from config)")
	segments     = flag.Int("segments", 0, "Welch segment count, 0 derives it from the sampling rate")
	calibrate    = flag.Int("calibrate", 0, "Show the live input level of this channel instead of monitoring")
	writeConfig  = flag.String("write-config", "", "Write the effective configuration to this path and exit")
	showVersion  = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Parse()
	defer glog.Flush()

	if *showVersion {
		fmt.Printf("SuperSID v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	if err := applyFlags(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", *writeConfig)
		return
	}

	fmt.Printf("SuperSID v%s (commit: %s, branch: %s, built: %s)\n",
		Version, GitCommit, GitBranch, BuildTime)
	fmt.Println("VLF Sudden Ionospheric Disturbance Monitor")
	fmt.Println()

	if *listDevices || *audioDevice != "" {
		driver, err := audio.NewMalgoDriver()
		if err != nil {
			glog.Exitf("unable to initialise audio: %s", err)
		}
		dm := app.NewDeviceManager(driver, os.Stdout)
		if *listDevices {
			err = dm.ListDevices()
			driver.Close()
			if err != nil {
				os.Exit(1)
			}
			return
		}
		info, err := dm.SelectDevice(*audioDevice)
		driver.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.SoundCard.Device = info.ID
	}

	monitor := app.NewMonitor(app.MonitorConfig{Config: cfg, Count: *count})
	if *calibrate > 0 {
		err = monitor.Calibrate(*calibrate)
	} else {
		err = monitor.Run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags overrides configuration values with the flags given on the command line
func applyFlags(cfg *config.Config) error {
	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = true
	})

	if flagsSet["sample-format"] {
		f, err := audio.ParseFormat(*sampleFormat)
		if err != nil {
			return err
		}
		cfg.SoundCard.Format = f
	}
	if flagsSet["rate"] {
		r, err := audio.ParseSamplingRate(*samplingRate)
		if err != nil {
			return err
		}
		cfg.SoundCard.SamplingRate = r
	}
	if flagsSet["channels"] {
		cfg.SoundCard.Channels = *channels
	}
	if flagsSet["format"] || cfg.Output.Format == "" {
		cfg.Output.Format = *outputFormat
	}
	if flagsSet["output"] {
		cfg.Output.File = *outputFile
	}
	if flagsSet["plot-dir"] {
		cfg.Output.PlotDir = *plotDir
	}
	if flagsSet["interval"] {
		cfg.Analysis.Interval = *interval
	}
	if flagsSet["duration"] {
		cfg.Analysis.DurationMs = *duration
	}
	if flagsSet["segments"] {
		cfg.Analysis.SegmentCount = *segments
	}
	if cfg.Analysis.Interval < time.Duration(cfg.Analysis.DurationMs)*time.Millisecond {
		glog.Warningf("interval %s is shorter than the capture, captures run back to back", cfg.Analysis.Interval)
	}
	return cfg.Validate()
}
