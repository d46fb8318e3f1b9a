package factory

import (
	"fmt"
	"io"

	"github.com/mikey/llm-phish-detector/internal/adapters/filter"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/ports"
	"go.uber.org/zap"
)

// Supported email filter types
const (
	FilterPostfix = "postfix"
	FilterCLI     = "cli"
	FilterNone    = "none"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	analyzer ports.EmailAnalyzer
	out      io.Writer
}

// NewFilterFactory creates a new filter factory. out receives CLI reports.
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, analyzer ports.EmailAnalyzer, out io.Writer) *FilterFactory {
	return &FilterFactory{
		cfg:      cfg,
		logger:   logger,
		analyzer: analyzer,
		out:      out,
	}
}

// CreateEmailFilter creates an email filter based on the configuration.
// The "none" type yields a nil filter.
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterCfg := f.cfg.GetFilter()

	switch filterCfg.Type {
	case FilterPostfix:
		analysis, err := f.cfg.GetAnalysis()
		if err != nil {
			return nil, err
		}
		return filter.NewPostfixFilter(f.analyzer, f.logger, filterCfg, analysis.Timeout), nil
	case FilterCLI:
		return filter.NewCliFilter(
			f.analyzer,
			f.logger,
			f.out,
			f.cfg.GetBool("cli.verbose"),
			f.cfg.GetBool("cli.json"),
		), nil
	case FilterNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterCfg.Type)
	}
}
