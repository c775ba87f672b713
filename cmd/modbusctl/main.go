package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goburrow/serial"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tamzrod/modbusctl/internal/config"
	"github.com/tamzrod/modbusctl/internal/logging"
	"github.com/tamzrod/modbusctl/internal/poll"
	"github.com/tamzrod/modbusctl/internal/script"
	"github.com/tamzrod/modbusctl/internal/server"
	"github.com/tamzrod/modbusctl/internal/snapshot"
	"github.com/tamzrod/modbusctl/internal/status"
	"github.com/tamzrod/modbusctl/internal/transport"
)

var (
	cfgFile string
	logger  *zap.Logger
	logRing *logging.Ring
)

var rootCmd = &cobra.Command{
	Use:   "modbusctl",
	Short: "Modbus polling client and simulated slave",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		l, ring := logging.New(0)
		logger = l
		logRing = ring
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Run as a polling Modbus client",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Mode != "client" {
			return fmt.Errorf("config: mode is %q, but the client command requires mode: client", cfg.Mode)
		}
		cat, programs, err := config.BuildCatalogue(cfg, script.NewEngine(0))
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		tr, err := buildTransport(cfg)
		if err != nil {
			return err
		}
		store := snapshot.NewStore(cat, cfg.HistoryLength)

		var engine *script.Engine
		if cfg.EnableScript {
			engine = script.NewEngine(0)
		}

		loopCfg := poll.Config{
			IntervalMs:          cfg.IntervalMs,
			DelayAfterConnectMs: cfg.DelayAfterConnectMs,
			TimeoutMs:           cfg.TimeoutMs,
			EnableScript:        cfg.EnableScript,
		}
		l := poll.New(loopCfg, cat, tr, store, engine, programs, logger)

		ctx, cancel := signalContext()
		defer cancel()

		if cfg.Metrics.Enabled {
			startStatusServer(cfg.Metrics.Addr, func() string { return l.State().String() }, store.Revision, l.Counters)
		}

		l.Connect()
		logger.Info("client starting", zap.String("mode", cfg.Mode))
		return l.Run(ctx)
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run as a simulated Modbus slave",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Mode != "server" {
			return fmt.Errorf("config: mode is %q, but the server command requires mode: server", cfg.Mode)
		}
		cat, _, err := config.BuildCatalogue(cfg, script.NewEngine(0))
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		store := snapshot.NewStore(cat, cfg.HistoryLength)
		server.SeedStore(cat, store)

		fault := server.FaultConfig{
			JitterMin:      time.Duration(cfg.Fault.JitterMinMs) * time.Millisecond,
			JitterMax:      time.Duration(cfg.Fault.JitterMaxMs) * time.Millisecond,
			PacketLossRate: cfg.Fault.PacketLossRate,
		}
		srv := server.New(cat, store, fault, logger)

		ctx, cancel := signalContext()
		defer cancel()

		if cfg.Metrics.Enabled {
			startStatusServer(cfg.Metrics.Addr, func() string { return "Serving" }, store.Revision, func() (uint64, uint64) { return 0, 0 })
		}

		go func() {
			<-ctx.Done()
			srv.Close()
		}()

		switch cfg.Connection.Kind {
		case "tcp":
			if cfg.Connection.TCP == nil {
				return fmt.Errorf("config: connection.tcp is required for kind=tcp")
			}
			logger.Info("server starting", zap.String("addr", cfg.Connection.TCP.Addr))
			return srv.ListenTCP(cfg.Connection.TCP.Addr)
		case "rtu":
			if cfg.Connection.RTU == nil {
				return fmt.Errorf("config: connection.rtu is required for kind=rtu")
			}
			r := cfg.Connection.RTU
			logger.Info("server starting", zap.String("device", r.Device))
			return srv.ListenRTU(&serial.Config{
				Address:  r.Device,
				BaudRate: r.BaudRate,
				DataBits: r.DataBits,
				Parity:   r.Parity,
				StopBits: r.StopBits,
			})
		default:
			return fmt.Errorf("config: unknown connection kind %q", cfg.Connection.Kind)
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration file utilities",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file without running",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, _, err := config.BuildCatalogue(cfg, script.NewEngine(0)); err != nil {
			return err
		}
		fmt.Println("configuration OK")
		fmt.Printf("  mode: %s\n", cfg.Mode)
		fmt.Printf("  definitions: %d\n", len(cfg.Definitions))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("modbusctl dev")
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

func buildTransport(cfg *config.Config) (transport.Transport, error) {
	switch cfg.Connection.Kind {
	case "tcp":
		if cfg.Connection.TCP == nil {
			return nil, fmt.Errorf("config: connection.tcp is required for kind=tcp")
		}
		return transport.NewTCP(cfg.Connection.TCP.Addr), nil
	case "rtu":
		if cfg.Connection.RTU == nil {
			return nil, fmt.Errorf("config: connection.rtu is required for kind=rtu")
		}
		r := cfg.Connection.RTU
		return transport.NewRTU(transport.RTUConfig{
			Device:   r.Device,
			BaudRate: r.BaudRate,
			DataBits: r.DataBits,
			Parity:   r.Parity,
			StopBits: r.StopBits,
		}), nil
	default:
		return nil, fmt.Errorf("config: unknown connection kind %q", cfg.Connection.Kind)
	}
}

func startStatusServer(addr string, state func() string, revision func() uint64, counts func() (uint64, uint64)) {
	src := status.NewSource(state, revision, counts)
	s := status.New(addr, src, logRing, logger)
	s.Start()
	logger.Info("status server listening", zap.String("addr", addr))
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx, cancel
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "configuration file path")
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(clientCmd, serverCmd, configCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
