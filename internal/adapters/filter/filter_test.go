package filter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-phish-detector/internal/config"
	"github.com/mikey/llm-phish-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAnalyzer struct {
	result *core.AnalysisResult
	emails []*core.Email
}

func (a *fakeAnalyzer) AnalyzeEmail(_ context.Context, email *core.Email) *core.AnalysisResult {
	a.emails = append(a.emails, email)
	return a.result
}

func (a *fakeAnalyzer) AnalyzeContent(_ context.Context, content string) *core.AnalysisResult {
	a.emails = append(a.emails, &core.Email{Body: content})
	return a.result
}

func phishingResult() *core.AnalysisResult {
	verdict := true
	score := 0.95
	return core.AssembleResult(core.ParsedFields{
		IsPhishing:      &verdict,
		ConfidenceScore: &score,
		Reasons:         []string{"Urgent credential request", "Mismatched sender"},
	}, []string{"http://fake-bank.example/login"}, "is_phishing: true")
}

func filterConfig() config.FilterConfig {
	cfg := config.NewFromViper(config.NewEmptyViper()).GetFilter()
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.PostfixEnabled = false
	return cfg
}

const rawMessage = "From: Security Team <alerts@fake-bank.example>\r\n" +
	"To: victim@example.com\r\n" +
	"Subject: Verify your account\r\n" +
	"X-Phishing-Status: false\r\n" +
	"\r\n" +
	"Please verify at http://fake-bank.example/login immediately.\r\n"

func TestHandleMessage_AnnotatesHeaders(t *testing.T) {
	analyzer := &fakeAnalyzer{result: phishingResult()}
	f := NewPostfixFilter(analyzer, zap.NewNop(), filterConfig(), time.Second)

	out, err := f.handleMessage(context.Background(), "alerts@fake-bank.example", []string{"victim@example.com"}, []byte(rawMessage))
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "true", msg.Header.Get("X-Phishing-Status"))
	assert.Len(t, msg.Header["X-Phishing-Status"], 1, "forged incoming header must be dropped")
	assert.Equal(t, "0.95", msg.Header.Get("X-Phishing-Confidence"))
	assert.Equal(t, "Urgent credential request; Mismatched sender", msg.Header.Get("X-Phishing-Reason"))
	assert.Equal(t, "Verify your account", msg.Header.Get("Subject"))
	assert.Empty(t, msg.Header.Get(analysisErrorHeader))

	body, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "Please verify at http://fake-bank.example/login immediately.\r\n", string(body))

	require.Len(t, analyzer.emails, 1)
	assert.Equal(t, "alerts@fake-bank.example", analyzer.emails[0].From)
	assert.Equal(t, "Verify your account", analyzer.emails[0].Subject)
}

func TestHandleMessage_ModifiesSubject(t *testing.T) {
	cfg := filterConfig()
	cfg.ModifySubject = true
	f := NewPostfixFilter(&fakeAnalyzer{result: phishingResult()}, zap.NewNop(), cfg, time.Second)

	out, err := f.handleMessage(context.Background(), "a@fake-bank.example", []string{"b@example.com"}, []byte(rawMessage))
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "[**PHISHING**] Verify your account", msg.Header.Get("Subject"))

	// a second pass does not stack prefixes
	again, err := f.handleMessage(context.Background(), "a@fake-bank.example", []string{"b@example.com"}, out)
	require.NoError(t, err)
	msg, err = mail.ReadMessage(bytes.NewReader(again))
	require.NoError(t, err)
	assert.Equal(t, "[**PHISHING**] Verify your account", msg.Header.Get("Subject"))
}

func TestHandleMessage_KeepsLFLineEndings(t *testing.T) {
	cfg := filterConfig()
	cfg.ModifySubject = true
	f := NewPostfixFilter(&fakeAnalyzer{result: phishingResult()}, zap.NewNop(), cfg, time.Second)
	raw := strings.ReplaceAll(rawMessage, "\r\n", "\n")

	out, err := f.handleMessage(context.Background(), "a@fake-bank.example", []string{"b@example.com"}, []byte(raw))
	require.NoError(t, err)

	assert.NotContains(t, string(out), "\r")
	assert.True(t, strings.HasPrefix(string(out), "X-Phishing-Status: true\nX-Phishing-Confidence: 0.95\n"))

	msg, err := mail.ReadMessage(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "[**PHISHING**] Verify your account", msg.Header.Get("Subject"))
	body, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "Please verify at http://fake-bank.example/login immediately.\n", string(body))
}

func TestHandleMessage_BlocksPhishing(t *testing.T) {
	cfg := filterConfig()
	cfg.BlockPhishing = true
	f := NewPostfixFilter(&fakeAnalyzer{result: phishingResult()}, zap.NewNop(), cfg, time.Second)

	_, err := f.handleMessage(context.Background(), "a@fake-bank.example", []string{"b@example.com"}, []byte(rawMessage))

	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 550, smtpErr.Code)
}

func TestHandleMessage_FailureIsNotBlocked(t *testing.T) {
	cfg := filterConfig()
	cfg.BlockPhishing = true
	failure := core.FailureResult(errors.New("gemini: quota exceeded"))
	f := NewPostfixFilter(&fakeAnalyzer{result: failure}, zap.NewNop(), cfg, time.Second)

	out, err := f.handleMessage(context.Background(), "a@example.com", []string{"b@example.com"}, []byte(rawMessage))
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "unknown", msg.Header.Get("X-Phishing-Status"))
	assert.Equal(t, "N/A", msg.Header.Get("X-Phishing-Confidence"))
	assert.Equal(t, "gemini: quota exceeded", msg.Header.Get(analysisErrorHeader))
}

type capturedMessage struct {
	from string
	to   []string
	data []byte
}

type captureBackend struct {
	messages chan capturedMessage
}

func (b *captureBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &captureSession{backend: b}, nil
}

type captureSession struct {
	backend *captureBackend
	msg     capturedMessage
}

func (s *captureSession) Reset() { s.msg = capturedMessage{} }
func (s *captureSession) Logout() error { return nil }
func (s *captureSession) Mail(from string, _ *smtp.MailOptions) error {
	s.msg.from = from
	return nil
}
func (s *captureSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.msg.to = append(s.msg.to, to)
	return nil
}
func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.msg.data = data
	s.backend.messages <- s.msg
	return nil
}

func TestSessionData_ReinjectsToPostfix(t *testing.T) {
	backend := &captureBackend{messages: make(chan capturedMessage, 1)}
	downstream := smtp.NewServer(backend)
	downstream.Domain = "localhost"
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go downstream.Serve(listener)
	defer downstream.Close()

	addr := listener.Addr().(*net.TCPAddr)
	cfg := filterConfig()
	cfg.PostfixEnabled = true
	cfg.PostfixAddress = "127.0.0.1"
	cfg.PostfixPort = addr.Port

	f := NewPostfixFilter(&fakeAnalyzer{result: phishingResult()}, zap.NewNop(), cfg, time.Second)
	session := &smtpSession{filter: f}
	require.NoError(t, session.Mail("alerts@fake-bank.example", nil))
	require.NoError(t, session.Rcpt("victim@example.com", nil))
	require.NoError(t, session.Data(strings.NewReader(rawMessage)))

	select {
	case got := <-backend.messages:
		assert.Equal(t, "alerts@fake-bank.example", got.from)
		assert.Equal(t, []string{"victim@example.com"}, got.to)
		assert.Contains(t, string(got.data), "X-Phishing-Status: true")
	case <-time.After(5 * time.Second):
		t.Fatal("message was not re-injected")
	}
}

func TestExtractTextFromMessage_Multipart(t *testing.T) {
	raw := "Subject: =?UTF-8?B?VXJnZW50OiB2ZXJpZnk=?=\r\n" +
		"Content-Type: multipart/mixed; boundary=outer\r\n" +
		"\r\n" +
		"--outer\r\n" +
		"Content-Type: multipart/alternative; boundary=inner\r\n" +
		"\r\n" +
		"--inner\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"Q2xpY2sgaHR0cDovL2V2aWwuZXhhbXBsZQ==\r\n" +
		"--inner\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<a href=\"http://evil.example\">Click</a>\r\n" +
		"--inner--\r\n" +
		"--outer\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Disposition: attachment; filename=notes.txt\r\n" +
		"\r\n" +
		"attachment text\r\n" +
		"--outer--\r\n"

	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)

	email, err := emailFromMessage(msg, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Urgent: verify", email.Subject)
	assert.Equal(t, "Click http://evil.example\n", email.Body)
}

func TestExtractTextFromMessage_HTMLOnlyAndEmpty(t *testing.T) {
	htmlOnly := "Content-Type: multipart/alternative; boundary=b\r\n\r\n" +
		"--b\r\nContent-Type: text/html\r\n\r\n<p>Hi</p>\r\n--b--\r\n"
	msg, err := mail.ReadMessage(strings.NewReader(htmlOnly))
	require.NoError(t, err)
	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>\n", text)

	imageOnly := "Content-Type: multipart/mixed; boundary=b\r\n\r\n" +
		"--b\r\nContent-Type: image/png\r\n\r\nxxxx\r\n--b--\r\n"
	msg, err = mail.ReadMessage(strings.NewReader(imageOnly))
	require.NoError(t, err)
	text, err = extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, noTextContent, text)
}

func TestCliFilter_JSONOutput(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(&fakeAnalyzer{result: phishingResult()}, zap.NewNop(), &out, false, true)

	result, err := f.ProcessContent(context.Background(), "Verify at http://fake-bank.example/login")
	require.NoError(t, err)
	assert.True(t, result.Success)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, true, decoded["isPhishing"])
	assert.Equal(t, 0.95, decoded["confidenceScore"])
}

func TestCliFilter_TextReport(t *testing.T) {
	var out bytes.Buffer
	f := NewCliFilter(&fakeAnalyzer{result: phishingResult()}, zap.NewNop(), &out, true, false)

	_, err := f.ProcessEmail(context.Background(), &core.Email{
		From:    "alerts@fake-bank.example",
		To:      []string{"victim@example.com"},
		Subject: "Verify your account",
		Body:    "Please verify",
	})
	require.NoError(t, err)

	report := out.String()
	assert.Contains(t, report, "Is phishing: true")
	assert.Contains(t, report, "Confidence: 0.95")
	assert.Contains(t, report, "  - Urgent credential request")
	assert.Contains(t, report, "  - http://fake-bank.example/login")
	assert.Contains(t, report, "Body preview:\nPlease verify")
}
