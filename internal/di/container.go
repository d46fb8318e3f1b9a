package di

import (
	"context"
	"io"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-detector/internal/api"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/mikey/llm-phish-detector/internal/factory"
	"github.com/mikey/llm-phish-detector/internal/logging"
	"github.com/mikey/llm-phish-detector/internal/metrics"
	"github.com/mikey/llm-phish-detector/internal/ports"
	"github.com/mikey/llm-phish-detector/internal/utils"
	"github.com/mikey/llm-phish-detector/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container for the daemon
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := registerServices(container); err != nil {
		return nil, err
	}

	// Register HTTP API
	if err := container.Provide(func(
		cfg *config.Config,
		analyzer ports.EmailAnalyzer,
		m *metrics.Metrics,
		logger *zap.Logger,
	) (*api.Server, error) {
		analysis, err := cfg.GetAnalysis()
		if err != nil {
			return nil, err
		}
		handler := api.NewHandler(analyzer, analysis.Timeout, logger)
		return api.NewServer(cfg.GetHTTP(), handler, m.Handler(), logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// registerServices registers everything below the configuration and logger,
// shared by the daemon and CLI containers
func registerServices(container *dig.Container) error {
	if err := container.Provide(context.Background); err != nil {
		return err
	}
	if err := container.Provide(func() io.Writer { return os.Stdout }); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return err
	}

	// Register text-completion client
	if err := container.Provide(func(ctx context.Context, f *factory.LLMFactory) (core.TextCompleter, error) {
		return f.CreateTextCompleter(ctx)
	}); err != nil {
		return err
	}

	// Register cache repository; nil when caching is disabled
	if err := container.Provide(func(ctx context.Context, f *factory.CacheFactory) (factory.StoppableCache, error) {
		return f.CreateCacheRepository(ctx)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(c factory.StoppableCache) core.CacheRepository {
		if c == nil {
			return nil
		}
		return c
	}); err != nil {
		return err
	}

	// Register whitelist checker
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		domains := cfg.GetStringSlice("phishing.whitelisted_domains")
		if len(domains) > 0 {
			logger.Info("Loaded whitelisted domains", zap.Strings("domains", domains))
		}
		return whitelist.NewChecker(domains, logger)
	}); err != nil {
		return err
	}

	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register metrics
	if err := container.Provide(metrics.New); err != nil {
		return err
	}
	if err := container.Provide(func(m *metrics.Metrics) core.AnalysisObserver { return m }); err != nil {
		return err
	}

	// Register service settings
	if err := container.Provide(func(cfg *config.Config) (core.ServiceConfig, error) {
		cacheCfg, err := cfg.GetCache()
		if err != nil {
			return core.ServiceConfig{}, err
		}
		analysis, err := cfg.GetAnalysis()
		if err != nil {
			return core.ServiceConfig{}, err
		}
		return core.ServiceConfig{
			CacheEnabled:   cacheCfg.Enabled,
			CacheTTL:       cacheCfg.TTL,
			MaxContentSize: analysis.MaxContentSize,
		}, nil
	}); err != nil {
		return err
	}

	// Register detection pipeline and service
	if err := container.Provide(core.NewAnalyzer); err != nil {
		return err
	}
	if err := container.Provide(core.NewPhishingDetectionService); err != nil {
		return err
	}
	if err := container.Provide(func(s *core.PhishingDetectionService) ports.EmailAnalyzer { return s }); err != nil {
		return err
	}

	// Register email filter; nil for filter type "none"
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return err
	}

	return nil
}
