package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	id "github.com/emersion/go-imap-id"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

// IMAPConfig holds the connection settings for an IMAP source
type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool
}

// IMAPSource lists recent messages from an IMAP INBOX. Each ListRecent call
// opens a fresh connection and logs out when done.
type IMAPSource struct {
	cfg IMAPConfig
}

// NewIMAPSource creates an IMAP-backed Source
func NewIMAPSource(cfg IMAPConfig) *IMAPSource {
	return &IMAPSource{cfg: cfg}
}

const (
	dialTimeout    = 10 * time.Second
	commandTimeout = 60 * time.Second
	fetchBatchSize = 50
)

// connect establishes and authenticates an IMAP session
func (s *IMAPSource) connect() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	dialer := &net.Dialer{Timeout: dialTimeout}

	var c *client.Client
	if s.cfg.UseSSL {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.cfg.Host})
		if err != nil {
			return nil, err
		}
		c, err = client.New(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
	} else {
		conn, err := dialer.Dial("tcp", addr)
		if err != nil {
			return nil, err
		}
		c, err = client.New(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
	}

	c.Timeout = commandTimeout

	// Some providers require client identification before login
	if ok, _ := c.Support("ID"); ok {
		idClient := id.NewClient(c)
		_, _ = idClient.ID(id.ID{
			id.FieldName:    "genaigo",
			id.FieldVersion: "1.0.0",
		})
	}

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("login failed: %v", err)
	}

	return c, nil
}

// ListRecent returns the INBOX messages received since the given time
func (s *IMAPSource) ListRecent(ctx context.Context, since time.Time) ([]RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mbox, err := c.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %v", err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)

	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("search failed: %v", err)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	var out []RawMessage
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, section.FetchItem()}

	for i := 0; i < len(seqNums); i += fetchBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := i + fetchBatchSize
		if end > len(seqNums) {
			end = len(seqNums)
		}

		seqSet := new(imap.SeqSet)
		seqSet.AddNum(seqNums[i:end]...)

		messages := make(chan *imap.Message, fetchBatchSize)
		done := make(chan error, 1)
		go func() {
			done <- c.Fetch(seqSet, items, messages)
		}()

		for msg := range messages {
			if msg == nil || msg.Envelope == nil {
				continue
			}
			out = append(out, s.toRawMessage(msg, section))
		}
		if err := <-done; err != nil {
			return nil, fmt.Errorf("fetch failed: %v", err)
		}
	}

	return out, nil
}

// toRawMessage converts one IMAP message into the source-neutral form
func (s *IMAPSource) toRawMessage(msg *imap.Message, section *imap.BodySectionName) RawMessage {
	raw := RawMessage{
		Subject: msg.Envelope.Subject,
	}

	raw.ID = msg.Envelope.MessageId
	if raw.ID == "" {
		raw.ID = fmt.Sprintf("uid:%d", msg.Uid)
	}

	if len(msg.Envelope.From) > 0 {
		raw.Sender = formatAddress(msg.Envelope.From[0])
	}
	if !msg.Envelope.Date.IsZero() {
		raw.Date = msg.Envelope.Date.Format(time.RFC1123Z)
	}

	if literal := msg.GetBody(section); literal != nil {
		content, err := io.ReadAll(literal)
		if err == nil && len(content) > 0 {
			raw.Body = extractBody(content)
		}
	}

	return raw
}

// extractBody pulls the text content out of a raw RFC 822 message,
// preferring text/plain over text/html
func extractBody(content []byte) string {
	r := bytes.NewReader(content)
	entity, err := message.Read(r)
	if err != nil {
		// Fall back to a plain mail parse
		r.Seek(0, io.SeekStart)
		m, err := mail.ReadMessage(r)
		if err != nil {
			return ""
		}
		b, _ := io.ReadAll(m.Body)
		return strings.TrimSpace(string(b))
	}

	var plain, html string
	walkEntity(entity, &plain, &html)
	if plain != "" {
		return strings.TrimSpace(plain)
	}
	return strings.TrimSpace(html)
}

// walkEntity recursively collects the first text/plain and text/html parts
func walkEntity(entity *message.Entity, plain, html *string) {
	mediaType, _, _ := entity.Header.ContentType()

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		mr := entity.MultipartReader()
		if mr == nil {
			return
		}
		for {
			part, err := mr.NextPart()
			if err != nil {
				return
			}
			walkEntity(part, plain, html)
		}
	case mediaType == "text/plain" && *plain == "":
		body, _ := io.ReadAll(entity.Body)
		*plain = string(body)
	case mediaType == "text/html" && *html == "":
		body, _ := io.ReadAll(entity.Body)
		*html = string(body)
	}
}

// formatAddress formats an IMAP address to a string
func formatAddress(addr *imap.Address) string {
	if addr.PersonalName != "" {
		return fmt.Sprintf("%s <%s@%s>", addr.PersonalName, addr.MailboxName, addr.HostName)
	}
	return fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName)
}
