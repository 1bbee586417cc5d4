package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/pollship/internal/cliconfig"
	"github.com/bft-labs/pollship/internal/server"
	"github.com/bft-labs/pollship/pkg/log"
	"github.com/bft-labs/pollship/plugins/configwatcher"
)

const longHelp = `Serve engine.io long-polling sessions over HTTP.

Highlights:
  - Batches queued packets into size-bounded payloads.
  - Speaks protocol v4 and, optionally, the legacy v3 string and binary framings.
  - Configure via file, env (POLLSHIP_*), or flags; max_payload reloads live.
  - Prometheus metrics and a health endpoint.`

var exampleUsage = strings.TrimSpace(`
  pollship --listen :3000 --max-payload 1000000
  pollship --config $HOME/.pollship/config.toml --log-level debug
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "pollship",
		Short:         "Serve engine.io long-polling sessions over HTTP",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else {
				cfgFile = ""
			}

			// Env overrides the file; flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := log.NewZerologAdapter(os.Stderr, cfg.LogLevel)
			if err != nil {
				return err
			}
			zl := logger.Logger()
			zl.Info().Interface("config", cfg).Msg("configuration")

			return run(cfg, cfgFile, logger)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.pollship/config.toml)")
	root.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")
	root.Flags().StringVar(&cfg.Path, "path", cfg.Path, "polling endpoint path")
	root.Flags().StringVar(&cfg.MetricsPath, "metrics-path", cfg.MetricsPath, "Prometheus metrics path (empty disables)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	root.Flags().IntVar(&cfg.MaxPayload, "max-payload", cfg.MaxPayload, "maximum payload size in bytes")
	root.Flags().IntVar(&cfg.QueueCapacity, "queue-capacity", cfg.QueueCapacity, "per-session packet queue capacity (0 is unbounded)")
	root.Flags().BoolVar(&cfg.AllowV3, "allow-v3", cfg.AllowV3, "accept legacy protocol v3 clients")

	root.Flags().DurationVar(&cfg.PingInterval, "ping-interval", cfg.PingInterval, "heartbeat interval")
	root.Flags().DurationVar(&cfg.PingTimeout, "ping-timeout", cfg.PingTimeout, "heartbeat timeout advertised in the handshake")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown timeout")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pollship: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg cliconfig.Config, cfgFile string, logger *log.ZerologAdapter) error {
	srv, err := server.New(server.Config{
		ListenAddr:      cfg.ListenAddr,
		Path:            cfg.Path,
		MaxPayload:      cfg.MaxPayload,
		QueueCapacity:   cfg.QueueCapacity,
		AllowV3:         cfg.AllowV3,
		PingInterval:    cfg.PingInterval,
		PingTimeout:     cfg.PingTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MetricsPath:     cfg.MetricsPath,
	}, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	watcher := configwatcher.New(configwatcher.Config{
		Path:          cfgFile,
		DebounceDelay: 100 * time.Millisecond,
		OnChange:      configwatcher.ApplyMaxPayload(srv),
	}, logger)
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("config watcher not started", log.Err(err))
	}

	<-ctx.Done()
	logger.Info("received signal, stopping...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout+time.Second)
	defer stopCancel()

	if err := watcher.Shutdown(stopCtx); err != nil {
		logger.Warn("config watcher shutdown", log.Err(err))
	}
	if err := srv.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	return nil
}
