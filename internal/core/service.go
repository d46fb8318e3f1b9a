package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-phish-detector/internal/utils"
	"github.com/mikey/llm-phish-detector/internal/whitelist"
	"go.uber.org/zap"
)

// ServiceConfig holds the tunables of the detection service
type ServiceConfig struct {
	CacheEnabled   bool
	CacheTTL       time.Duration
	MaxContentSize int
}

// PhishingDetectionService is the core service for phishing detection
type PhishingDetectionService struct {
	analyzer      *Analyzer
	cache         CacheRepository
	whitelist     *whitelist.Checker
	textProcessor *utils.TextProcessor
	observer      AnalysisObserver
	logger        *zap.Logger
	cfg           ServiceConfig
}

// NewPhishingDetectionService creates a new phishing detection service.
// cache and observer may be nil.
func NewPhishingDetectionService(
	analyzer *Analyzer,
	cache CacheRepository,
	whitelistChecker *whitelist.Checker,
	textProcessor *utils.TextProcessor,
	observer AnalysisObserver,
	logger *zap.Logger,
	cfg ServiceConfig,
) *PhishingDetectionService {
	return &PhishingDetectionService{
		analyzer:      analyzer,
		cache:         cache,
		whitelist:     whitelistChecker,
		textProcessor: textProcessor,
		observer:      observer,
		logger:        logger,
		cfg:           cfg,
	}
}

// AnalyzeEmail checks whether a parsed email message is phishing
func (s *PhishingDetectionService) AnalyzeEmail(ctx context.Context, email *Email) *AnalysisResult {
	if s.whitelist != nil && s.whitelist.IsWhitelisted(email.From) {
		s.logger.Info("Skipping phishing check for whitelisted domain",
			zap.String("sender", email.From),
			zap.String("action", "whitelist_bypass"))
		return whitelistedResult(email.From, s.renderEmail(email))
	}

	return s.AnalyzeContent(ctx, s.renderEmail(email))
}

// AnalyzeContent checks whether raw email text is phishing
func (s *PhishingDetectionService) AnalyzeContent(ctx context.Context, content string) *AnalysisResult {
	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID))
	key := fingerprint(content)

	if s.cacheEnabled() {
		if entry, err := s.cache.Get(ctx, key); err == nil && entry.Result != nil {
			logger.Debug("Cache hit for content", zap.String("key", key))
			if s.observer != nil {
				s.observer.ObserveCacheHit()
			}
			return entry.Result
		}
	}

	start := time.Now()
	result := s.analyzer.Analyze(ctx, content)
	duration := time.Since(start)

	if s.observer != nil {
		s.observer.ObserveAnalysis(result, duration)
	}

	if !result.Success {
		logger.Error("Failed to analyze email", zap.String("error", result.Error), zap.Duration("duration", duration))
		return result
	}

	logger.Info("Analyzed email",
		zap.Any("is_phishing", result.IsPhishing),
		zap.Any("confidence_score", result.ConfidenceScore),
		zap.Int("links", len(result.ExtractedLinks)),
		zap.Duration("duration", duration))

	if s.cacheEnabled() {
		now := time.Now()
		entry := &CacheEntry{
			Key:       key,
			Result:    result,
			CreatedAt: now,
			ExpiresAt: now.Add(s.cfg.CacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return result
}

func (s *PhishingDetectionService) cacheEnabled() bool {
	return s.cfg.CacheEnabled && s.cache != nil
}

// renderEmail turns a parsed message into the text sent for analysis
func (s *PhishingDetectionService) renderEmail(email *Email) string {
	content := email.Body
	if email.Subject != "" {
		content = "Subject: " + email.Subject + "\n\n" + email.Body
	}
	if s.textProcessor == nil {
		return content
	}
	return s.textProcessor.ProcessText(content, s.cfg.MaxContentSize)
}

func whitelistedResult(sender, content string) *AnalysisResult {
	notPhishing := false
	confidence := 1.0
	fields := ParsedFields{
		IsPhishing:      &notPhishing,
		ConfidenceScore: &confidence,
		Reasons:         []string{"Sender domain is whitelisted"},
	}
	return AssembleResult(fields, ExtractLinks(content), "Sender "+sender+" is whitelisted")
}

func fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
