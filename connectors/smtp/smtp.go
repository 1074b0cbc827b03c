// Package smtp implements the reference mail sink: every message is
// rendered as an outgoing email, subject built from service name and args,
// body as the plain-text part, one attachment per message.Attachments
// entry.
package smtp

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/credential"
	svcioerr "github.com/lemunozm/service-io/errors"
	"github.com/lemunozm/service-io/logger"
	"github.com/lemunozm/service-io/message"
	"github.com/lemunozm/service-io/retry"
)

// Transport submits one email per received message over domain:587
// (STARTTLS), authenticating with credentials from store.
type Transport struct {
	domain     string
	from       string
	senderName string
	store      credential.Store
}

// Option configures a Transport.
type Option func(*Transport)

// WithSenderName sets the display name on the From header.
func WithSenderName(name string) Option {
	return func(t *Transport) { t.senderName = name }
}

// New returns an SMTP Transport that authenticates as from (also the
// From address of every sent email) against domain.
func New(domain, from string, store credential.Store, opts ...Option) *Transport {
	t := &Transport{domain: domain, from: from, store: store}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Run submits one email per received message until receiver closes or ctx
// is canceled. A transient submission failure is retried with backoff; an
// auth challenge while using a bearer credential refreshes the token and
// retries once. A message that still cannot be sent is logged and dropped.
func (t *Transport) Run(ctx context.Context, receiver *channel.Receiver[message.Message]) error {
	for {
		msg, err := receiver.Recv(ctx)
		if err != nil {
			return err
		}

		if err := t.sendWithRetry(ctx, msg); err != nil {
			logger.Error("smtp submission failed", "service", msg.ServiceName, "user", msg.User, "error", err)
		}
	}
}

// sendWithRetry separates two failure modes. A transient dial/send failure
// is retried by retry.Do, same as the IMAP connector's reconnect path. An
// auth challenge is never handed to retry.Do: on a bearer credential it
// refreshes the token once and retries the send exactly once on its own,
// mirroring the IMAP connector's reauthenticate, instead of refreshing up
// to MaxAttempts times in a loop.
func (t *Transport) sendWithRetry(ctx context.Context, msg message.Message) error {
	err := t.sendWithTransientRetry(ctx, msg)
	if err == nil {
		return nil
	}

	if !isAuthChallenge(err) || t.store.Kind() != credential.KindBearer {
		return err
	}

	if refreshErr := t.store.Refresh(ctx); refreshErr != nil {
		return refreshErr
	}

	return t.send(ctx, msg)
}

func (t *Transport) sendWithTransientRetry(ctx context.Context, msg message.Message) error {
	return retry.Do(ctx, func() error {
		return t.send(ctx, msg)
	}, func(err error) bool { return !isAuthChallenge(err) }, retry.WithMaxAttempts(3))
}

func (t *Transport) send(ctx context.Context, msg message.Message) error {
	raw, err := render(t.from, t.senderName, msg)
	if err != nil {
		return svcioerr.New(svcioerr.CodeFormat, "failed to render outgoing email").AddMeta("error", err.Error())
	}

	client, err := gosmtp.DialStartTLS(fmt.Sprintf("%s:587", t.domain), nil)
	if err != nil {
		return svcioerr.New(svcioerr.CodeTransient, "smtp dial failed").AddMeta("error", err.Error())
	}
	defer client.Close()

	auth, err := t.auth()
	if err != nil {
		return err
	}

	if err := client.Auth(auth); err != nil {
		return svcioerr.New(svcioerr.CodeAuthChallenge, "smtp auth rejected").AddMeta("error", err.Error())
	}

	if err := client.SendMail(t.from, []string{msg.User}, bytes.NewReader(raw)); err != nil {
		return svcioerr.New(svcioerr.CodeTransient, "smtp send failed").AddMeta("error", err.Error())
	}

	return nil
}

func (t *Transport) auth() (sasl.Client, error) {
	if t.store.Kind() == credential.KindBearer {
		return sasl.NewXoauth2Client(t.from, t.store.Current()), nil
	}

	return sasl.NewPlainClient("", t.from, t.store.Current()), nil
}

func isAuthChallenge(err error) bool {
	var structured *svcioerr.Error
	if e, ok := err.(*svcioerr.Error); ok {
		structured = e
	}

	return structured != nil && structured.Code == svcioerr.CodeAuthChallenge
}

// render builds a multipart/mixed email with a plain-text body and
// one attachment per entry of msg.Attachments.
func render(from, senderName string, msg message.Message) ([]byte, error) {
	var header gomail.Header
	header.SetDate(time.Now())
	header.SetAddressList("From", []*gomail.Address{{Name: senderName, Address: from}})
	header.SetAddressList("To", []*gomail.Address{{Address: msg.User}})
	header.SetSubject(subjectFor(msg))

	var buf bytes.Buffer

	writer, err := gomail.CreateWriter(&buf, header)
	if err != nil {
		return nil, err
	}

	if err := writeTextPart(writer, msg.Body); err != nil {
		return nil, err
	}

	for name, content := range msg.Attachments {
		if err := writeAttachment(writer, name, content); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func subjectFor(msg message.Message) string {
	parts := append([]string{msg.ServiceName}, msg.Args...)

	return strings.TrimSpace(strings.Join(parts, " "))
}

func writeTextPart(writer *gomail.Writer, body string) error {
	var textHeader gomail.InlineHeader
	textHeader.SetContentType("text/plain", nil)

	textWriter, err := writer.CreateSingleInline(textHeader)
	if err != nil {
		return err
	}
	defer textWriter.Close()

	_, err = textWriter.Write([]byte(body))

	return err
}

func writeAttachment(writer *gomail.Writer, filename string, content []byte) error {
	var attachHeader gomail.AttachmentHeader
	attachHeader.SetContentType("application/octet-stream", nil)
	attachHeader.SetFilename(filename)

	attachWriter, err := writer.CreateAttachment(attachHeader)
	if err != nil {
		return err
	}
	defer attachWriter.Close()

	_, err = attachWriter.Write(content)

	return err
}
