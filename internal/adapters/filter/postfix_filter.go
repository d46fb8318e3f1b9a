package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/mikey/llm-phish-detector/internal/ports"
	"go.uber.org/zap"
)

const (
	defaultSubjectPrefix = "[**PHISHING**] "
	analysisErrorHeader  = "X-Phishing-Analysis-Error"
)

// PostfixFilter implements a Postfix content filter
type PostfixFilter struct {
	analyzer ports.EmailAnalyzer
	logger   *zap.Logger
	cfg      config.FilterConfig
	timeout  time.Duration
	server   *smtp.Server
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(analyzer ports.EmailAnalyzer, logger *zap.Logger, cfg config.FilterConfig, timeout time.Duration) *PostfixFilter {
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = defaultSubjectPrefix
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &PostfixFilter{
		analyzer: analyzer,
		logger:   logger,
		cfg:      cfg,
		timeout:  timeout,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	listener, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}
	return f.Serve(listener)
}

// Serve accepts filter connections on an existing listener in the background
func (f *PostfixFilter) Serve(listener net.Listener) error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	f.logger.Info("Postfix filter starting", zap.String("address", listener.Addr().String()))

	go func() {
		if err := f.server.Serve(listener); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail analyzes a parsed email without touching the SMTP path
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisResult, error) {
	return f.analyzer.AnalyzeEmail(ctx, email), nil
}

// handleMessage analyzes a raw message and returns the annotated copy to re-inject.
// A non-nil error rejects the message.
func (f *PostfixFilter) handleMessage(ctx context.Context, sender string, recipients []string, raw []byte) ([]byte, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		f.logger.Error("Failed to parse email message", zap.Error(err))
		return nil, err
	}

	email, err := emailFromMessage(msg, sender, recipients)
	if err != nil {
		f.logger.Error("Failed to extract text content", zap.Error(err))
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	result := f.analyzer.AnalyzeEmail(ctx, email)
	if !result.Success {
		f.logger.Error("Failed to analyze email",
			zap.String("error", result.Error),
			zap.String("sender", email.From))
	}

	phishing := result.Success && result.IsPhishing != nil && *result.IsPhishing
	if phishing && f.cfg.BlockPhishing {
		f.logger.Info("Rejecting phishing email",
			zap.String("from", email.From),
			zap.String("summary", result.Summary))
		return nil, &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Rejected as phishing (" + confidenceValue(result) + ")",
		}
	}

	annotated := f.annotate(raw, result, phishing)

	f.logger.Info("Processed email",
		zap.String("from", email.From),
		zap.String("status", statusValue(result)),
		zap.String("confidence", confidenceValue(result)))

	return annotated, nil
}

// annotate prepends the analysis headers and optionally rewrites the subject.
// The original body is copied byte for byte so MIME parts and attachments survive.
func (f *PostfixFilter) annotate(raw []byte, result *core.AnalysisResult, phishing bool) []byte {
	header, body, sep := splitMessage(raw)

	// added fields follow the message's own line endings
	var out bytes.Buffer
	fmt.Fprintf(&out, "%s: %s%s", f.cfg.PhishingHeader, statusValue(result), sep)
	fmt.Fprintf(&out, "%s: %s%s", f.cfg.ConfidenceHeader, confidenceValue(result), sep)
	fmt.Fprintf(&out, "%s: %s%s", f.cfg.ReasonHeader, headerSafe(reasonValue(result)), sep)
	if !result.Success {
		fmt.Fprintf(&out, "%s: %s%s", analysisErrorHeader, headerSafe(result.Error), sep)
	}

	prefix := ""
	if phishing && f.cfg.ModifySubject {
		prefix = f.cfg.SubjectPrefix
	}

	own := []string{f.cfg.PhishingHeader, f.cfg.ConfidenceHeader, f.cfg.ReasonHeader, analysisErrorHeader}
	for _, field := range headerFields(header) {
		name := fieldName(field)
		if containsFold(own, name) {
			// incoming copies could be forged by the sender
			continue
		}
		if prefix != "" && strings.EqualFold(name, "Subject") {
			out.WriteString(prefixSubject(field, prefix, sep))
			continue
		}
		out.WriteString(field)
	}

	out.WriteString(sep)
	out.Write(body)
	return out.Bytes()
}

// sendToPostfix sends the processed email back to Postfix on the configured port
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.cfg.PostfixAddress, strconv.Itoa(f.cfg.PostfixPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}

	if !recipientOK {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// the message has already been accepted
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	annotated, err := s.filter.handleMessage(context.Background(), s.sender, s.recipients, raw)
	if err != nil {
		return err
	}

	if !s.filter.cfg.PostfixEnabled {
		s.filter.logger.Warn("Postfix forwarding disabled, message dropped after analysis",
			zap.String("sender", s.sender))
		return nil
	}

	if err := s.filter.sendToPostfix(s.sender, s.recipients, annotated); err != nil {
		s.filter.logger.Error("Failed to send email back to Postfix",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}

	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}

func statusValue(result *core.AnalysisResult) string {
	if !result.Success || result.IsPhishing == nil {
		return "unknown"
	}
	return strconv.FormatBool(*result.IsPhishing)
}

func confidenceValue(result *core.AnalysisResult) string {
	if !result.Success || result.ConfidenceScore == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *result.ConfidenceScore)
}

func reasonValue(result *core.AnalysisResult) string {
	if !result.Success {
		return "Analysis failed"
	}
	if len(result.Reasons) > 0 {
		return strings.Join(result.Reasons, "; ")
	}
	return result.Summary
}

// headerSafe collapses a value onto one line and encodes non-ASCII text
func headerSafe(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	return mime.QEncoding.Encode("utf-8", value)
}

// splitMessage separates the header block from the body, returning the separator that was found
func splitMessage(raw []byte) (header, body []byte, sep string) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i+2], raw[i+4:], "\r\n"
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i+1], raw[i+2:], "\n"
	}
	if bytes.Contains(raw, []byte("\r\n")) || !bytes.Contains(raw, []byte("\n")) {
		return raw, nil, "\r\n"
	}
	return raw, nil, "\n"
}

// headerFields splits a header block into fields, keeping folded continuation lines attached
func headerFields(header []byte) []string {
	var fields []string
	for _, line := range strings.SplitAfter(string(header), "\n") {
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(fields) > 0 {
			fields[len(fields)-1] += line
			continue
		}
		fields = append(fields, line)
	}
	return fields
}

func fieldName(field string) string {
	name, _, ok := strings.Cut(field, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(name)
}

func prefixSubject(field, prefix, sep string) string {
	_, value, _ := strings.Cut(field, ":")
	subject := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(value, "\r\n", ""), "\n", ""))
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}
	if strings.HasPrefix(subject, prefix) {
		return field
	}
	return "Subject: " + mime.QEncoding.Encode("utf-8", prefix+subject) + sep
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if n != "" && strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
