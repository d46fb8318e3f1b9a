package di

import (
	"flag"
	"strings"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Provider flags
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	TopP        float64

	// Bedrock flags
	BedrockRegion string

	// Analysis flags
	MaxContentSize int
	Timeout        time.Duration
	Whitelist      string
	Cache          bool

	// Input and output flags
	InputFile  string
	Raw        bool
	JSONOutput bool
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line arguments into a CLIFlags struct
func ParseFlags(name string, args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	fs.StringVar(&flags.Provider, "provider", "gemini", "Text-completion provider (gemini, openai, bedrock, keyword)")
	fs.StringVar(&flags.Model, "model", "", "Model name or ID for the provider (provider default if empty)")
	fs.StringVar(&flags.APIKey, "api-key", "", "API key for Gemini or OpenAI (falls back to GEMINI_API_KEY / OPENAI_API_KEY)")
	fs.StringVar(&flags.BaseURL, "base-url", "", "Base URL of an OpenAI-compatible endpoint")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for the model response")
	fs.Float64Var(&flags.Temperature, "temperature", 0.1, "Sampling temperature")
	fs.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for generation")

	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")

	fs.IntVar(&flags.MaxContentSize, "max-content-size", 0, "Maximum email size in bytes sent for analysis (0 = unlimited)")
	fs.DurationVar(&flags.Timeout, "timeout", 30*time.Second, "Analysis timeout")
	fs.StringVar(&flags.Whitelist, "whitelist", "", "Comma-separated list of whitelisted sender domains")
	fs.BoolVar(&flags.Cache, "cache", false, "Enable the in-memory result cache")

	fs.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	fs.BoolVar(&flags.Raw, "raw", false, "Treat the input as raw text instead of an RFC 822 message")
	fs.BoolVar(&flags.JSONOutput, "json", false, "Print the analysis result as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging and body preview")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.Load(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			cfg.GetViper().Set("server.filter_type", "cli")
			cfg.GetViper().Set("cli.verbose", flags.Verbose)
			cfg.GetViper().Set("cli.json", flags.JSONOutput)
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := registerServices(container); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Environment credentials still apply when no key is passed
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")

	// Set some cli specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cli.json", flags.JSONOutput)

	v.Set("llm.provider", flags.Provider)

	switch strings.ToLower(flags.Provider) {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		setIfNotEmpty(v.Set, "bedrock.model_id", flags.Model)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini", "openai":
		prefix := strings.ToLower(flags.Provider)
		setIfNotEmpty(v.Set, prefix+".api_key", flags.APIKey)
		setIfNotEmpty(v.Set, prefix+".model_name", flags.Model)
		v.Set(prefix+".max_tokens", flags.MaxTokens)
		v.Set(prefix+".temperature", flags.Temperature)
		v.Set(prefix+".top_p", flags.TopP)
		if prefix == "openai" {
			setIfNotEmpty(v.Set, "openai.base_url", flags.BaseURL)
		}
	}

	v.Set("analysis.max_content_size", flags.MaxContentSize)
	v.Set("analysis.timeout", flags.Timeout.String())

	// Result cache is opt-in for the CLI
	v.Set("cache.enabled", flags.Cache)
	v.Set("cache.type", "memory")
	v.Set("cache.cleanup_frequency", "0s")

	v.Set("phishing.whitelisted_domains", splitList(flags.Whitelist))

	return config.NewFromViper(v)
}

func setIfNotEmpty(set func(string, any), key, value string) {
	if value != "" {
		set(key, value)
	}
}

func splitList(list string) []string {
	items := []string{}
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
