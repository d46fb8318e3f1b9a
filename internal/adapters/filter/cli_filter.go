package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/mikey/llm-phish-detector/internal/ports"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for phishing detection
type CliFilter struct {
	analyzer   ports.EmailAnalyzer
	logger     *zap.Logger
	out        io.Writer
	verbose    bool
	jsonOutput bool
}

// NewCliFilter creates a new CLI filter that writes its report to out
func NewCliFilter(analyzer ports.EmailAnalyzer, logger *zap.Logger, out io.Writer, verbose, jsonOutput bool) *CliFilter {
	return &CliFilter{
		analyzer:   analyzer,
		logger:     logger,
		out:        out,
		verbose:    verbose,
		jsonOutput: jsonOutput,
	}
}

// ProcessEmail analyzes a parsed email and prints the report
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	if !f.jsonOutput {
		fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
		fmt.Fprintf(f.out, "From: %s\n", email.From)
		fmt.Fprintf(f.out, "To: %s\n", strings.Join(email.To, ", "))
		fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
		fmt.Fprintf(f.out, "Body length: %d bytes\n", len(email.Body))
		f.printPreview(email.Body)
	}

	start := time.Now()
	result := f.analyzer.AnalyzeEmail(ctx, email)
	return result, f.report(result, time.Since(start))
}

// ProcessContent analyzes raw email text and prints the report
func (f *CliFilter) ProcessContent(ctx context.Context, content string) (*core.AnalysisResult, error) {
	if !f.jsonOutput {
		fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
		fmt.Fprintf(f.out, "Content length: %d bytes\n", len(content))
		f.printPreview(content)
	}

	start := time.Now()
	result := f.analyzer.AnalyzeContent(ctx, content)
	return result, f.report(result, time.Since(start))
}

func (f *CliFilter) printPreview(body string) {
	if !f.verbose {
		return
	}
	preview := []rune(body)
	if len(preview) > 500 {
		preview = append(preview[:500], []rune("...")...)
	}
	fmt.Fprintf(f.out, "\nBody preview:\n%s\n", string(preview))
}

func (f *CliFilter) report(result *core.AnalysisResult, duration time.Duration) error {
	if f.jsonOutput {
		enc := json.NewEncoder(f.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		return nil
	}

	fmt.Fprintf(f.out, "\n=== Results ===\n")
	if !result.Success {
		fmt.Fprintf(f.out, "Analysis failed: %s\n", result.Error)
		fmt.Fprintf(f.out, "Processing time: %v\n", duration)
		return nil
	}

	fmt.Fprintf(f.out, "Is phishing: %s\n", statusValue(result))
	fmt.Fprintf(f.out, "Confidence: %s\n", confidenceValue(result))
	printList(f.out, "Reasons", result.Reasons)
	printList(f.out, "Suspicious elements", result.SuspiciousElements)
	printList(f.out, "Links", result.ExtractedLinks)
	fmt.Fprintf(f.out, "Summary: %s\n", result.Summary)
	fmt.Fprintf(f.out, "Processing time: %v\n", duration)
	return nil
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(w, "%s: none\n", title)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
