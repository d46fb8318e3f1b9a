package filter

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/mikey/llm-phish-detector/internal/core"
)

const noTextContent = "[No text content found in multipart message]"

// maxMultipartDepth bounds recursion into nested multipart bodies
const maxMultipartDepth = 5

var headerDecoder = &mime.WordDecoder{}

// decodeEncodedHeader decodes RFC 2047 encoded words such as =?UTF-8?B?...?=
func decodeEncodedHeader(value string) (string, error) {
	return headerDecoder.DecodeHeader(value)
}

// EmailFromMessage converts a parsed message into the domain email type,
// taking the sender from the From header
func EmailFromMessage(msg *mail.Message) (*core.Email, error) {
	return emailFromMessage(msg, "", nil)
}

// emailFromMessage converts a parsed message into the domain email type
func emailFromMessage(msg *mail.Message, envelopeFrom string, recipients []string) (*core.Email, error) {
	text, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, err
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}

	from := envelopeFrom
	if from == "" {
		from = msg.Header.Get("From")
	}

	headers := make(map[string][]string, len(msg.Header))
	for key, values := range msg.Header {
		headers[key] = values
	}

	return &core.Email{
		From:    from,
		To:      recipients,
		Subject: subject,
		Body:    text,
		Headers: headers,
	}, nil
}

// extractTextFromMessage extracts the readable text of an email message.
// text/plain parts are preferred; text/html parts are used when no plain text exists.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return "", err
	}

	contentType := msg.Header.Get("Content-Type")
	encoding := msg.Header.Get("Content-Transfer-Encoding")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return string(decodeTransfer(body, encoding)), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		return string(body), nil
	}

	var plain, html bytes.Buffer
	walkMultipart(bytes.NewReader(body), boundary, 0, &plain, &html)

	switch {
	case plain.Len() > 0:
		return plain.String(), nil
	case html.Len() > 0:
		return html.String(), nil
	default:
		return noTextContent, nil
	}
}

// walkMultipart collects text parts into plain and html, descending into nested multiparts
func walkMultipart(r io.Reader, boundary string, depth int, plain, html *bytes.Buffer) {
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// keep whatever was collected before the malformed part
			return
		}

		mediaType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			mediaType = "text/plain"
		}

		if isAttachment(part.Header) {
			continue
		}

		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			if depth < maxMultipartDepth {
				walkMultipart(part, params["boundary"], depth+1, plain, html)
			}
		case mediaType == "text/plain":
			appendPart(plain, part)
		case mediaType == "text/html":
			appendPart(html, part)
		}
	}
}

func appendPart(buf *bytes.Buffer, part *multipart.Part) {
	// multipart.Reader already decodes quoted-printable parts
	data, err := io.ReadAll(part)
	if err != nil {
		return
	}
	buf.Write(decodeTransfer(data, part.Header.Get("Content-Transfer-Encoding")))
	buf.WriteString("\n")
}

func isAttachment(h textproto.MIMEHeader) bool {
	disposition, _, err := mime.ParseMediaType(h.Get("Content-Disposition"))
	return err == nil && disposition == "attachment"
}

// decodeTransfer undoes base64 and quoted-printable transfer encodings.
// Undecodable data is returned unchanged.
func decodeTransfer(data []byte, encoding string) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		cleaned := strings.Map(func(r rune) rune {
			if r == '\r' || r == '\n' || r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, string(data))
		decoded, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			return data
		}
		return decoded
	case "quoted-printable":
		decoded, err := io.ReadAll(quotedprintable.NewReader(bytes.NewReader(data)))
		if err != nil {
			return data
		}
		return decoded
	default:
		return data
	}
}
