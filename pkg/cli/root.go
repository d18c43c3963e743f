package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jackieclzheng/AiBuildIp/pkg/config"
	"github.com/jackieclzheng/AiBuildIp/pkg/metrics"
	"github.com/jackieclzheng/AiBuildIp/pkg/system"
	"github.com/jackieclzheng/AiBuildIp/pkg/telemetry"
	"github.com/jackieclzheng/AiBuildIp/pkg/version"
)

const (
	DefaultConfigPath = "digestmail.yaml"
	DefaultEnvFile    = ".env"
)

// Config carries the process-level inputs of the command tree.
type Config struct {
	ConfigPath   string
	OutputWriter io.Writer
	// LookupEnv replaces os.LookupEnv for flag fallbacks and config overrides.
	LookupEnv config.LookupFunc
	// Logger replaces the logger built from --debug.
	Logger *zap.SugaredLogger
}

type runtimeState struct {
	configPath      string
	envFile         string
	debug           bool
	metricsTextfile string
	traceFile       string
	shutdownTracing telemetry.ShutdownFunc
	traceOut        *os.File
	cfg             *config.Config
	log             *zap.SugaredLogger
	lookup          config.LookupFunc
	writer          io.Writer
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		OutputWriter: os.Stdout,
		LookupEnv:    os.LookupEnv,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	lookup := cfg.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	rt := &runtimeState{
		configPath: cfg.ConfigPath,
		writer:     cfg.OutputWriter,
		log:        cfg.Logger,
		lookup:     lookup,
	}
	if rt.configPath == "" {
		rt.configPath = getEnvString(lookup, "DIGESTMAIL_CONFIG", DefaultConfigPath)
	}

	root := &cobra.Command{
		Use:           "digestmail",
		Short:         "Rotate content sources into scheduled mail digests",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = cmd.OutOrStdout()
			}
			if !rt.debug {
				rt.debug = getEnvBool(rt.lookup, "DIGESTMAIL_DEBUG", false)
			}
			if rt.metricsTextfile == "" {
				rt.metricsTextfile = getEnvString(rt.lookup, "DIGESTMAIL_METRICS_TEXTFILE", "")
			}
			if rt.traceFile == "" {
				rt.traceFile = getEnvString(rt.lookup, "DIGESTMAIL_TRACE_FILE", "")
			}
			if rt.log == nil {
				log, err := system.NewLogger(rt.debug)
				if err != nil {
					return err
				}
				rt.log = log
			}
			if err := rt.initTracing(cmd.Context()); err != nil {
				return err
			}
			if cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return rt.loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file (yaml or toml)")
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", DefaultEnvFile, "Path to a .env file loaded before environment overrides")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Enable debug level logging")
	root.PersistentFlags().StringVar(&rt.metricsTextfile, "metrics-textfile", "", "Write run metrics to this node-exporter textfile")
	root.PersistentFlags().StringVar(&rt.traceFile, "trace-file", "", "Export OpenTelemetry spans of the run to this file")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewSendCommand(),
		NewListCommand(),
		NewStateCommand(),
		NewDigestsCommand(),
		NewSecretCommand(),
		NewVersionCommand(),
	)

	return root
}

// ExecuteContext runs root with ctx while keeping the runtime state that
// NewRootCommand attached to the command context.
func ExecuteContext(ctx context.Context, root *cobra.Command) error {
	rt, err := getRuntime(root)
	if err != nil {
		return err
	}
	err = root.ExecuteContext(context.WithValue(ctx, runtimeKey{}, rt))
	rt.closeTracing(ctx)
	return err
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) loadConfig() error {
	if rt.envFile != "" {
		if err := config.LoadDotEnv(rt.envFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(rt.lookup); err != nil {
		return err
	}
	if err := cfg.ValidateDigests(); err != nil {
		return err
	}
	rt.cfg = cfg
	rt.log.Debugw("Loaded configuration", "path", rt.configPath, "digests", cfg.DigestNames(), "transport", cfg.Transport)
	return nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) Logger() *zap.SugaredLogger {
	if rt.log != nil {
		return rt.log
	}
	return zap.NewNop().Sugar()
}

func (rt *runtimeState) digest(name string) (*config.Digest, error) {
	if rt.cfg == nil {
		return nil, errors.New("config not loaded")
	}
	return rt.cfg.Digest(name)
}

func (rt *runtimeState) initTracing(ctx context.Context) error {
	if rt.traceFile == "" || rt.shutdownTracing != nil {
		return nil
	}
	f, err := os.Create(rt.traceFile)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	_, shutdown, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:        true,
		Exporter:       telemetry.ExporterStdout,
		Writer:         f,
		ServiceVersion: version.Version,
		SamplingRate:   1.0,
		Logger:         rt.Logger(),
	})
	if err != nil {
		_ = f.Close()
		return err
	}
	rt.traceOut = f
	rt.shutdownTracing = shutdown
	return nil
}

func (rt *runtimeState) closeTracing(ctx context.Context) {
	if rt.shutdownTracing == nil {
		return
	}
	if err := rt.shutdownTracing(context.WithoutCancel(ctx)); err != nil {
		rt.Logger().Warnw("Failed to flush traces", "error", err)
	}
	_ = rt.traceOut.Close()
	rt.shutdownTracing = nil
}

func (rt *runtimeState) writeMetrics() {
	if rt.metricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(rt.metricsTextfile); err != nil {
		rt.Logger().Warnw("Failed to write metrics textfile", "path", rt.metricsTextfile, "error", err)
	}
}

// getEnvString returns the value of key, or defaultVal if it is not set.
func getEnvString(lookup config.LookupFunc, key, defaultVal string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return defaultVal
}

// getEnvBool returns the value of key as a bool, or defaultVal if it is not set.
// Valid true values are "true", "1", "yes" (case-insensitive).
func getEnvBool(lookup config.LookupFunc, key string, defaultVal bool) bool {
	if val, ok := lookup(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}
