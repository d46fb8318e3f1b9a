// Package keyword provides an offline text completer that flags emails containing
// known phishing phrases. It answers in the same labeled format as the model
// providers so its output goes through the regular response parser.
package keyword

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Completer implements core.TextCompleter with a static phrase list
type Completer struct {
	phrases []string
	folded  []string
	logger  *zap.Logger
}

// NewCompleter creates a keyword completer for the configured phrases
func NewCompleter(cfg config.KeywordConfig, logger *zap.Logger) *Completer {
	caser := cases.Fold()
	phrases := make([]string, 0, len(cfg.Phrases))
	folded := make([]string, 0, len(cfg.Phrases))
	for _, phrase := range cfg.Phrases {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		phrases = append(phrases, phrase)
		folded = append(folded, caser.String(phrase))
	}

	return &Completer{
		phrases: phrases,
		folded:  folded,
		logger:  logger,
	}
}

// Complete checks the email embedded in the prompt against the phrase list
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", core.NewServiceError("keyword", err)
	}

	content := cases.Fold().String(core.EmailFromPrompt(prompt))

	var matched []string
	for i, phrase := range c.folded {
		if strings.Contains(content, phrase) {
			matched = append(matched, c.phrases[i])
		}
	}

	c.logger.Debug("Keyword check complete", zap.Strings("matched", matched))

	return render(matched), nil
}

func render(matched []string) string {
	var b strings.Builder
	if len(matched) == 0 {
		fmt.Fprintf(&b, "%s: false\n", core.LabelIsPhishing)
		fmt.Fprintf(&b, "%s:\n- No known phishing phrases found\n", core.LabelReasons)
		fmt.Fprintf(&b, "%s:\n", core.LabelSuspiciousElements)
		return b.String()
	}

	fmt.Fprintf(&b, "%s: true\n", core.LabelIsPhishing)
	fmt.Fprintf(&b, "%s: 1.0\n", core.LabelConfidenceScore)
	fmt.Fprintf(&b, "%s:\n", core.LabelReasons)
	for _, phrase := range matched {
		fmt.Fprintf(&b, "- Contains the phrase %q\n", phrase)
	}
	fmt.Fprintf(&b, "%s:\n", core.LabelSuspiciousElements)
	for _, phrase := range matched {
		fmt.Fprintf(&b, "- %s\n", phrase)
	}
	return b.String()
}
