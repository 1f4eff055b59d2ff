package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/frameo2mqtt/internal/adapter/actor"
	"github.com/berfenger/frameo2mqtt/internal/config"
	"github.com/berfenger/frameo2mqtt/internal/core/actor"
	"github.com/berfenger/frameo2mqtt/internal/core/port"
	"github.com/berfenger/frameo2mqtt/internal/core/service"
	"github.com/berfenger/frameo2mqtt/internal/server"
	"github.com/berfenger/frameo2mqtt/internal/util/actorutil"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "frameo2mqtt",
	Short: "Bridge Frameo photo frames to MQTT and Home Assistant",
	Long: `frameo2mqtt controls Frameo photo frames over ADB, either directly or
through the ADB relay add-on, and exposes them over MQTT with Home Assistant
discovery and a small REST API.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var scanFlags struct {
	relayHost string
	relayPort uint
	timeout   time.Duration
}

var scanUSBCmd = &cobra.Command{
	Use:   "scan-usb",
	Short: "List the serials of frames attached over USB",
	Example: `  # frames attached to this host
  frameo2mqtt scan-usb

  # frames attached to the host running the ADB relay
  frameo2mqtt scan-usb --relay-host 192.168.1.10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return scanUSB(cmd.Context())
	},
}

func init() {
	scanUSBCmd.Flags().StringVar(&scanFlags.relayHost, "relay-host", "", "ADB relay host, scan locally when empty")
	scanUSBCmd.Flags().UintVar(&scanFlags.relayPort, "relay-port", frameo.DEFAULT_RELAY_PORT, "ADB relay port")
	scanUSBCmd.Flags().DurationVar(&scanFlags.timeout, "timeout", frameo.DEFAULT_USB_SCAN_TIMEOUT, "scan timeout")

	rootCmd.AddCommand(serveCmd, scanUSBCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func gracefulShutdown(apiServer *http.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func serve() error {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		return fmt.Errorf("config errors: %w", err)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("closing transports", zap.Error(err))
		}
	}()

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, registry, frameActorProvider(cfg, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return err
	}

	server := server.NewServer(*cfg, ctx, pid, registry)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, logger, done)

	logger.Info("listening", zap.String("addr", server.Addr), zap.Strings("frames", registry.Ids()))
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}

	// Wait for the graceful shutdown to complete
	<-done
	logger.Info("graceful shutdown complete")

	ctx.Stop(pid)
	as.Shutdown()
	return nil
}

func buildRegistry(cfg *config.Config, logger *zap.Logger) (*service.Registry, error) {
	reconnect := service.ReconnectOptions{
		MaxAttempts: cfg.Reconnect.MaxAttempts,
		Delay:       cfg.Reconnect.Delay(),
	}
	var controllers []port.DeviceController
	for _, d := range cfg.Devices {
		device := d.FrameDevice()
		transport, err := frameo.NewTransport(device.Connection, cfg.Transport.Timeouts(), logger.With(zap.String("frame", device.Id)))
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", device.Id, err)
		}
		controllers = append(controllers, service.NewFrameController(device, transport, reconnect, logger))
	}
	return service.NewRegistry(controllers...)
}

func frameActorProvider(cfg *config.Config, logger *zap.Logger) actor.FrameActorProvider {
	return func(controller port.DeviceController) *adactor.FrameActor {
		return adactor.NewFrameActor(controller, cfg.FrameTaskTimeout(), logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func scanUSB(ctx context.Context) error {
	logger := zap.Must(zap.NewDevelopment())
	defer logger.Sync()

	timeouts := frameo.DefaultTimeouts()
	timeouts.USBScan = scanFlags.timeout

	var scanner frameo.USBScanner
	if scanFlags.relayHost != "" {
		scanner = frameo.NewRelayClient(frameo.Endpoint{Host: scanFlags.relayHost, Port: scanFlags.relayPort}, timeouts, logger)
	} else {
		scanner = frameo.NewADBClient(frameo.ConnectionConfig{Kind: frameo.ConnectionUSB}, timeouts, logger)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	serials, err := scanner.ListUSBDevices(ctx)
	if err != nil {
		return err
	}
	if len(serials) == 0 {
		fmt.Println("no USB devices found")
		return nil
	}
	for _, serial := range serials {
		fmt.Println(serial)
	}
	return nil
}
