package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/mikey/llm-phish-detector/internal/ports"
	"go.uber.org/zap"
)

const missingContentMessage = "Missing email_content in request"

// DetectRequest is the body of a detection request. Both spellings of the field are accepted.
type DetectRequest struct {
	EmailContent      *string `json:"email_content"`
	EmailContentCamel *string `json:"emailContent"`
}

func (r DetectRequest) content() (string, bool) {
	switch {
	case r.EmailContent != nil:
		return *r.EmailContent, true
	case r.EmailContentCamel != nil:
		return *r.EmailContentCamel, true
	default:
		return "", false
	}
}

// Handler serves the detection endpoints
type Handler struct {
	analyzer ports.EmailAnalyzer
	timeout  time.Duration
	logger   *zap.Logger
}

// NewHandler creates a handler. A zero timeout leaves the request context untouched.
func NewHandler(analyzer ports.EmailAnalyzer, timeout time.Duration, logger *zap.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		timeout:  timeout,
		logger:   logger,
	}
}

// DetectPhishing handles POST /api/detect-phishing
func (h *Handler) DetectPhishing(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Rejected malformed detection request", zap.Error(err))
		c.JSON(http.StatusBadRequest, core.AnalysisResult{Error: missingContentMessage})
		return
	}

	content, ok := req.content()
	if !ok {
		c.JSON(http.StatusBadRequest, core.AnalysisResult{Error: missingContentMessage})
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	c.JSON(http.StatusOK, h.analyzer.AnalyzeContent(ctx, content))
}

// Health handles GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Phishing detection API is operational",
	})
}
