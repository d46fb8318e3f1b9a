package di

import (
	"context"
	"testing"
	"time"

	"github.com/mikey/llm-phish-detector/internal/adapters/filter"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/mikey/llm-phish-detector/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	flags, err := ParseFlags("phish-detector", []string{
		"-provider", "openai",
		"-model", "gpt-4o-mini",
		"-whitelist", "bank.example, ,corp.example",
		"-timeout", "5s",
		"-json",
	})
	require.NoError(t, err)

	assert.Equal(t, "openai", flags.Provider)
	assert.Equal(t, 5*time.Second, flags.Timeout)
	assert.True(t, flags.JSONOutput)

	cfg := createConfigFromFlags(flags)
	assert.Equal(t, "gpt-4o-mini", cfg.GetOpenAI().ModelName)
	assert.Equal(t, []string{"bank.example", "corp.example"}, cfg.GetStringSlice("phishing.whitelisted_domains"))
	assert.Equal(t, "cli", cfg.GetFilter().Type)
	assert.True(t, cfg.GetBool("cli.json"))

	cacheCfg, err := cfg.GetCache()
	require.NoError(t, err)
	assert.False(t, cacheCfg.Enabled)
}

func TestParseFlags_Unknown(t *testing.T) {
	_, err := ParseFlags("phish-detector", []string{"-threshold", "0.7"})

	assert.Error(t, err)
}

func TestBuildCLIContainer_KeywordProvider(t *testing.T) {
	flags, err := ParseFlags("phish-detector", []string{"-provider", "keyword", "-whitelist", "bank.example"})
	require.NoError(t, err)

	container, err := BuildCLIContainer(flags)
	require.NoError(t, err)

	err = container.Invoke(func(
		cfg *config.Config,
		emailFilter ports.EmailFilter,
		service *core.PhishingDetectionService,
		cache core.CacheRepository,
	) {
		assert.IsType(t, &filter.CliFilter{}, emailFilter)
		assert.Nil(t, cache)

		result := service.AnalyzeContent(context.Background(), "URGENT ACTION: click here http://evil.example")
		require.True(t, result.Success)
		require.NotNil(t, result.IsPhishing)
		assert.True(t, *result.IsPhishing)
		assert.Equal(t, []string{"http://evil.example"}, result.ExtractedLinks)

		whitelisted := service.AnalyzeEmail(context.Background(), &core.Email{From: "it@bank.example", Body: "click here"})
		require.NotNil(t, whitelisted.IsPhishing)
		assert.False(t, *whitelisted.IsPhishing)
	})
	require.NoError(t, err)
}
