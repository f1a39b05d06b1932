package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stat-client/internal/config"
	"stat-client/internal/logging"
	"stat-client/internal/metrics"
	"stat-client/internal/storage"
	"stat-client/internal/tools"
)

var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		vnstat     bool
	)

	cmd := &cobra.Command{
		Use:          "stat-client",
		Short:        "Sample host metrics and spool snapshots for the collector",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("vnstat") {
				cfg.Vnstat = vnstat
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.SetVersionTemplate("stat-client v{{.Version}}\n")
	cmd.Flags().StringVarP(&configPath, "config", "c", "/etc/stat-client/config.yaml", "path to config.yaml")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVarP(&vnstat, "vnstat", "n", false, "source network totals from vnstat")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stat-client v%s\n", version)
		},
	})

	return cmd
}

func run(parent context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logging.Flush(log)

	filter := metrics.InterfaceFilter(cfg.Interfaces.Ignore)
	src, err := metrics.NewSource(cfg.Source, cfg.ProcRoot, filter)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cpuState := metrics.NewCPUPercentState()
	netState := metrics.NewNetSpeedState()

	cpuSampler := metrics.NewCPUSampler(src, cpuState, cfg.SampleInterval(), log.Named("cpu"))
	cpuSampler.Start(ctx)
	defer cpuSampler.Stop()

	netSampler := metrics.NewNetSampler(src, netState, cfg.SampleInterval(), log.Named("net"))
	netSampler.Start(ctx)
	defer netSampler.Stop()

	spool, err := storage.NewSpool(cfg.SpoolDir)
	if err != nil {
		return err
	}
	defer spool.Close()

	rotator := storage.NewRotator(cfg.SpoolDir, cfg.RetentionDays, log.Named("spool"))
	rotator.Start()
	defer rotator.Stop()

	runner := tools.NewRunner(cfg.ToolTimeout())
	collector := &metrics.Collector{
		Version:             version,
		FatalOnMissingField: cfg.FatalOnMissingField(),
		Source:              src,
		Disk:                tools.NewDisk(runner, cfg.Disk.DfPath, cfg.Disk.FsTypes, log.Named("disk")),
		CPU:                 cpuState,
		Net:                 netState,
		Log:                 log.Named("collector"),
	}
	if cfg.Vnstat {
		collector.Mode = metrics.TrafficVnstat
		collector.Traffic = tools.NewVnstat(runner, cfg.Tools.VnstatPath, filter.Ignored)
	}
	if cfg.ProbeEnabled() {
		collector.Prober = metrics.NewProber(cfg.Probe.IPv4Addr, cfg.Probe.IPv6Addr, cfg.ProbeTimeout(), log.Named("probe"))
	}

	log.Info("stat-client started",
		zap.String("version", version),
		zap.String("source", cfg.Source),
		zap.Bool("vnstat", cfg.Vnstat),
		zap.Duration("sample_interval", cfg.SampleInterval()),
		zap.Duration("report_interval", cfg.ReportInterval()),
	)

	return report(ctx, cfg.ReportInterval(), collector, spool, log)
}

func report(ctx context.Context, interval time.Duration, collector *metrics.Collector, sink storage.Sink, log *zap.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case <-ticker.C:
			var snap metrics.Snapshot
			if err := collector.Sample(ctx, &snap); err != nil {
				log.Error("sampling aborted", zap.Error(err))
				return fmt.Errorf("sample: %w", err)
			}
			if err := sink.Write(snap); err != nil {
				log.Warn("snapshot not spooled", zap.Error(err))
			}
		}
	}
}
