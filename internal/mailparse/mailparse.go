// Package mailparse turns raw RFC 5322 messages into the fields needed to
// pick a magic link: recipients and body text.
package mailparse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// ErrEmptyMessage is returned for zero-length input.
var ErrEmptyMessage = errors.New("empty message")

// addressPattern picks bare addresses out of headers that are not valid
// RFC 5322 address lists.
var addressPattern = regexp.MustCompile(`[\w.+-]+@[\w.-]+\.\w+`)

// Message is a parsed email.
type Message struct {
	MessageID string
	Subject   string
	Date      time.Time
	To        []*mail.Address
	Cc        []*mail.Address
	HTML      string
	Text      string
}

// Recipients returns the lower-cased To and Cc addresses, in that order.
// A recipient without an address yields "".
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc))
	for _, list := range [][]*mail.Address{m.To, m.Cc} {
		for _, addr := range list {
			if addr == nil {
				out = append(out, "")
				continue
			}
			out = append(out, strings.ToLower(addr.Address))
		}
	}
	return out
}

// Body returns the HTML body, else the plain text body, else "".
func (m *Message) Body() string {
	if m.HTML != "" {
		return m.HTML
	}
	return m.Text
}

// ParseBytes parses a whole message held in memory.
func ParseBytes(raw []byte) (*Message, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyMessage
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	header := mr.Header
	parsed := &Message{
		MessageID: strings.Trim(strings.TrimSpace(header.Get("Message-Id")), "<>"),
		Subject:   decodeMIMEWord(header.Get("Subject")),
		To:        addressList(header, "To"),
		Cc:        addressList(header, "Cc"),
	}
	if date, err := header.Date(); err == nil {
		parsed.Date = date
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("failed to read part: %w", err)
		}
		if part == nil {
			continue
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if contentType == "" {
			contentType = "text/plain"
		}
		if contentType != "text/html" && contentType != "text/plain" {
			continue
		}

		body, err := io.ReadAll(part.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}

		switch contentType {
		case "text/html":
			if parsed.HTML == "" {
				parsed.HTML = string(body)
			}
		case "text/plain":
			if parsed.Text == "" {
				parsed.Text = string(body)
			}
		}
	}

	return parsed, nil
}

// addressList reads an address header. Headers that do not parse as an
// RFC 5322 list fall back to whatever bare addresses can be found in them.
func addressList(header mail.Header, key string) []*mail.Address {
	if !header.Has(key) {
		return nil
	}
	if addrs, err := header.AddressList(key); err == nil {
		return addrs
	}

	raw := header.Get(key)
	if decoded, err := header.Text(key); err == nil {
		raw = decoded
	}
	var addrs []*mail.Address
	for _, found := range addressPattern.FindAllString(raw, -1) {
		addrs = append(addrs, &mail.Address{Address: found})
	}
	return addrs
}

// decodeMIMEWord decodes MIME-encoded words (RFC 2047)
func decodeMIMEWord(s string) string {
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}
