package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/markus-lassfolk/rfwatch/pkg/api"
	"github.com/markus-lassfolk/rfwatch/pkg/config"
	"github.com/markus-lassfolk/rfwatch/pkg/interference"
	"github.com/markus-lassfolk/rfwatch/pkg/logx"
	"github.com/markus-lassfolk/rfwatch/pkg/metrics"
	"github.com/markus-lassfolk/rfwatch/pkg/mqtt"
	"github.com/markus-lassfolk/rfwatch/pkg/pidfile"
	"github.com/markus-lassfolk/rfwatch/pkg/survey"
)

var (
	configPath = flag.String("config", "/etc/rfwatch/rfwatch.yaml", "Path to configuration file")
	pidPath    = flag.String("pid-file", "", "Path to PID file (overrides config)")
	logLevel   = flag.String("log-level", "", "Override log level (debug|info|warn|error|trace)")
	version    = flag.Bool("version", false, "Show version information")
	force      = flag.Bool("force", false, "Force start by removing stale PID file")
)

const (
	AppName    = "rfwatchd"
	AppVersion = "1.0.0"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", AppName, AppVersion)
		os.Exit(0)
	}

	effectiveLogLevel := "info"
	if *logLevel != "" {
		effectiveLogLevel = *logLevel
	}

	logger := logx.NewLogger(effectiveLogLevel, "rfwatchd")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger.SetLevel(cfg.LogLevel)

	pidFilePath := cfg.PIDFile
	if *pidPath != "" {
		pidFilePath = *pidPath
	}

	pidFile := pidfile.New(pidFilePath)

	running, existingPID, err := pidFile.CheckRunning()
	if err != nil {
		logger.Error("Failed to check for running instance", "error", err)
		os.Exit(1)
	}

	if running {
		if *force {
			logger.Warn("Another instance is running, but force flag specified", "existing_pid", existingPID)
			if err := pidFile.ForceRemove(); err != nil {
				logger.Error("Failed to remove existing PID file", "error", err)
				os.Exit(1)
			}
		} else {
			logger.Error("Another instance is already running", "existing_pid", existingPID, "pid_file", pidFilePath)
			fmt.Fprintf(os.Stderr, "Error: %s is already running with PID %d\n", AppName, existingPID)
			fmt.Fprintf(os.Stderr, "Use --force to override, or stop the existing instance first\n")
			os.Exit(1)
		}
	}

	if err := pidFile.Create(); err != nil {
		logger.Error("Failed to create PID file", "error", err, "path", pidFilePath)
		os.Exit(1)
	}

	defer func() {
		if err := pidFile.Remove(); err != nil {
			logger.Error("Failed to remove PID file", "error", err)
		}
	}()

	logger.Info("Starting interference monitor", "version", AppVersion, "pid", os.Getpid(), "pid_file", pidFilePath)

	detector, err := interference.NewDetector(cfg.PathLoss, logx.NewLogger(cfg.LogLevel, "detector"))
	if err != nil {
		logger.Error("Failed to initialize detector", "error", err)
		os.Exit(1)
	}
	if err := detector.SetClusterBandwidth(cfg.ClusterBandwidthMHz); err != nil {
		logger.Error("Invalid cluster bandwidth", "error", err)
		os.Exit(1)
	}

	var sessions *survey.SessionStore
	if cfg.SessionDBPath != "" {
		sessions, err = survey.OpenSessionStore(cfg.SessionDBPath, logx.NewLogger(cfg.LogLevel, "sessions"))
		if err != nil {
			logger.Error("Failed to open session store", "error", err, "path", cfg.SessionDBPath)
			os.Exit(1)
		}
		defer sessions.Close()
	}

	collector := metrics.NewCollector()

	var publisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		publisher = mqtt.NewPublisher(&cfg.MQTT, logx.NewLogger(cfg.LogLevel, "mqtt"))
		if err := publisher.Connect(); err != nil {
			// MQTT is best effort; the paho client keeps retrying in the background
			logger.Warn("MQTT connect failed, will retry in background", "error", err, "broker", cfg.MQTT.Broker)
		}
		defer publisher.Disconnect()
	}

	server := api.NewServer(detector, sessions, collector, publisher, cfg.HeatmapGridSize, logx.NewLogger(cfg.LogLevel, "api"))
	if err := server.Start(cfg.ListenAddr); err != nil {
		logger.Error("Failed to start HTTP server", "error", err, "addr", cfg.ListenAddr)
		os.Exit(1)
	}

	if publisher != nil {
		if err := publisher.PublishStatus(map[string]interface{}{
			"status":  "running",
			"version": AppVersion,
		}); err != nil {
			logger.Warn("Failed to publish startup status", "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("Received signal, shutting down", "signal", sig.String())

	if err := server.Stop(); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	logger.Info("Shutdown complete")
}
