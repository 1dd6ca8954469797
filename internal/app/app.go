package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/five82/courier/internal/backend"
	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/logging"
	"github.com/five82/courier/internal/metrics"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/resolver"
	"github.com/five82/courier/internal/state"
	"github.com/five82/courier/internal/ui"
	"github.com/five82/courier/internal/updates"
)

const userAgent = "courier/0.1"

// Options configure the Courier client.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/courier/prefs.toml
	App        string // overrides the configured app when set
	PollEvery  int    // seconds; zero uses the configured interval
	Headless   bool   // log updates instead of starting the TUI
}

// Run boots Courier until the context is cancelled or the UI exits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logCfg := logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile}
	if opts.Headless {
		// Headless runs own the terminal, so log there.
		logCfg.File = ""
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("courier").With(zap.String("app", string(cfg.App)))

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	if userPrefs.EnsureDeviceID() {
		if err := prefs.Save(opts.PrefsPath, userPrefs); err != nil {
			logger.Warn("save prefs failed", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.New(reg)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logger); err != nil {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	sess, err := newSession(cfg, m, logger)
	if err != nil {
		return err
	}

	logger.Info("courier starting",
		zap.Strings("candidates", cfg.Candidates),
		zap.String("device_id", userPrefs.DeviceID),
		zap.Duration("poll_interval", cfg.PollInterval))

	var sub *updates.Subscription
	switch cfg.App {
	case config.AppRider:
		if err := sess.RefreshRiderStatus(ctx); err != nil {
			logger.Warn("initial rider status failed", zap.Error(err))
		}
		sub = StartUpdates(ctx, sess, cfg)
		defer sub.Close()
	case config.AppCustomer:
		if err := sess.RefreshRestaurants(ctx); err != nil {
			logger.Warn("initial restaurant load failed", zap.Error(err))
		}
	}

	if opts.Headless {
		return runHeadless(ctx, sess.store, logger, cfg.PollInterval)
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		App:       string(cfg.App),
		Actions:   sess,
		Store:     sess.store,
		LogPath:   cfg.LogFile,
		PollTick:  time.Second,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
	})
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load courier config: %w", err)
	}
	if opts.App != "" {
		cfg.App = config.App(opts.App)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newSession(cfg config.Config, m *metrics.Metrics, logger *zap.Logger) (*session, error) {
	res := resolver.New(cfg.Candidates,
		resolver.WithProbeTimeout(cfg.ProbeTimeout),
		resolver.WithLogger(logger),
		resolver.WithMetrics(m))

	client, err := backend.NewClient(res,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithUserAgent(userAgent),
		backend.WithLogger(logger),
		backend.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	return &session{
		client:   client,
		resolver: res,
		store:    &state.Store{},
		metrics:  m,
		logger:   logger,
	}, nil
}
