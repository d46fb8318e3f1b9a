package config

import (
	"fmt"
	"time"
)

// LLMConfig represents the configuration for the text-completion provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// KeywordConfig represents the configuration for the offline keyword heuristic
type KeywordConfig struct {
	Phrases []string
}

// AnalysisConfig holds limits applied around a single analysis
type AnalysisConfig struct {
	MaxContentSize int
	Timeout        time.Duration
}

// HTTPConfig represents the configuration for the HTTP API
type HTTPConfig struct {
	Enabled       bool
	ListenAddress string
	Debug         bool
}

// FilterConfig represents the configuration for the Postfix content filter
type FilterConfig struct {
	Type             string
	ListenAddress    string
	BlockPhishing    bool
	PhishingHeader   string
	ConfidenceHeader string
	ReasonHeader     string
	PostfixAddress   string
	PostfixPort      int
	PostfixEnabled   bool
	SubjectPrefix    string
	ModifySubject    bool
}

// CacheConfig represents the configuration for the result cache
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		BaseURL:     c.GetString("openai.base_url"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetKeyword returns the keyword heuristic configuration
func (c *Config) GetKeyword() KeywordConfig {
	return KeywordConfig{
		Phrases: c.GetStringSlice("keyword.phrases"),
	}
}

// GetAnalysis returns the analysis limits
func (c *Config) GetAnalysis() (AnalysisConfig, error) {
	timeout, err := c.GetDuration("analysis.timeout")
	if err != nil {
		return AnalysisConfig{}, fmt.Errorf("invalid analysis timeout: %w", err)
	}
	return AnalysisConfig{
		MaxContentSize: c.GetInt("analysis.max_content_size"),
		Timeout:        timeout,
	}, nil
}

// GetHTTP returns the HTTP API configuration
func (c *Config) GetHTTP() HTTPConfig {
	return HTTPConfig{
		Enabled:       c.GetBool("server.http.enabled"),
		ListenAddress: c.GetString("server.http.listen_address"),
		Debug:         c.GetBool("server.http.debug"),
	}
}

// GetFilter returns the email filter configuration
func (c *Config) GetFilter() FilterConfig {
	return FilterConfig{
		Type:             c.GetString("server.filter_type"),
		ListenAddress:    c.GetString("server.listen_address"),
		BlockPhishing:    c.GetBool("server.block_phishing"),
		PhishingHeader:   c.GetString("server.headers.phishing"),
		ConfidenceHeader: c.GetString("server.headers.confidence"),
		ReasonHeader:     c.GetString("server.headers.reason"),
		PostfixAddress:   c.GetString("server.postfix.address"),
		PostfixPort:      c.GetInt("server.postfix.port"),
		PostfixEnabled:   c.GetBool("server.postfix.enabled"),
		SubjectPrefix:    c.GetString("server.subject_prefix"),
		ModifySubject:    c.GetBool("server.modify_subject"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache TTL: %w", err)
	}
	cleanupFreq, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}
	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		Type:             c.GetString("cache.type"),
		TTL:              ttl,
		CleanupFrequency: cleanupFreq,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}
