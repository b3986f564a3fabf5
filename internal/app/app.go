package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/five82/docwatch/internal/config"
	"github.com/five82/docwatch/internal/docsops"
	"github.com/five82/docwatch/internal/engine"
	"github.com/five82/docwatch/internal/logging"
	"github.com/five82/docwatch/internal/metrics"
	"github.com/five82/docwatch/internal/prefs"
	"github.com/five82/docwatch/internal/search"
	"github.com/five82/docwatch/internal/session"
	"github.com/five82/docwatch/internal/ui"
)

// Options configure the docwatch application.
type Options struct {
	ConfigPath string
	PrefsPath  string    // empty uses default ~/.config/docwatch/prefs.toml
	PollEvery  int       // seconds; zero uses the configured interval
	Once       bool      // load once, print a summary and exit
	Out        io.Writer // summary destination; nil is stdout
}

// Run boots docwatch until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	logger, closeLog, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()
	logger.Info("docwatch starting",
		zap.String("api", cfg.APIBaseURL),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Duration("notification_interval", cfg.NotificationInterval),
	)

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load prefs failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	observer, err := metrics.NewObserver(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	if cfg.MetricsAddr != "" {
		if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logger); err != nil {
			return err
		}
	}

	sup := engine.NewSupervisor(ctx, newEngineFactory(cfg, logger, observer), logger)
	defer sup.Close()

	signIn := newSignIn(cfg, time.Now)

	if opts.Once {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		return runOnce(sup, signIn, out)
	}

	// Start signed in when credentials are configured; otherwise the user
	// signs in from the UI.
	if user, err := signIn(); err == nil {
		if err := sup.SetUser(user); err != nil {
			logger.Warn("initial load incomplete", zap.Error(err))
		}
	} else if !errors.Is(err, docsops.ErrUnauthenticated) {
		logger.Warn("sign in failed", zap.Error(err))
	}

	pipeline := search.New(ctx, search.Options{
		Searcher:  sup,
		Debounce:  cfg.SearchDebounce,
		CacheSize: cfg.SearchCacheSize,
		CacheTTL:  cfg.SearchCacheTTL,
		Logger:    logger,
		Observer:  observer,
	})
	defer pipeline.Close()

	return ui.Run(ui.Options{
		Context:   ctx,
		Sessions:  sup,
		Search:    pipeline,
		SignIn:    signIn,
		PublicURL: cfg.PublicURL,
		LogPath:   cfg.LogFile,
		ThemeName: userPrefs.Theme,
		Filter:    userPrefs.Filter,
		PrefsPath: opts.PrefsPath,
		Logger:    logger,
	})
}

// newEngineFactory builds one engine per session, each with its own client
// bound to that session's token.
func newEngineFactory(cfg config.Config, logger *zap.Logger, observer *metrics.Observer) engine.Factory {
	return func(user *session.User) (*engine.Engine, error) {
		client, err := docsops.NewClient(docsops.ClientOptions{
			BaseURL: cfg.APIBaseURL,
			Tokens:  user,
			Timeout: cfg.RequestTimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init docsops client: %w", err)
		}
		return engine.New(engine.Options{
			Backend:              client,
			PollInterval:         cfg.PollInterval,
			NotificationInterval: cfg.NotificationInterval,
			Logger:               logger,
			Observer:             observer,
		})
	}
}
