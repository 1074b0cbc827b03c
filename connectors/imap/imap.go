// Package imap implements the reference mailbox source: periodic polling
// of an IMAP inbox, one unread message parsed into a message.Message and
// deleted after a successful parse. Authentication is password or bearer
// token, selected by the configured credential.Store's Kind.
package imap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/credential"
	svcioerr "github.com/lemunozm/service-io/errors"
	"github.com/lemunozm/service-io/message"
	"github.com/lemunozm/service-io/retry"
	"github.com/lemunozm/service-io/scheduler"
)

// DefaultPollingInterval matches the behavioral contract's documented
// default.
const DefaultPollingInterval = 3 * time.Second

// Transport polls domain:993 over implicit TLS, authenticating with
// credentials from store.
type Transport struct {
	domain   string
	store    credential.Store
	polling  time.Duration
	mailbox  string
}

// Option configures a Transport.
type Option func(*Transport)

// WithPollingInterval overrides DefaultPollingInterval.
func WithPollingInterval(d time.Duration) Option {
	return func(t *Transport) { t.polling = d }
}

// WithMailbox overrides the selected mailbox, "INBOX" by default.
func WithMailbox(name string) Option {
	return func(t *Transport) { t.mailbox = name }
}

// New returns an IMAP Transport for domain, authenticating with store.
func New(domain string, store credential.Store, opts ...Option) *Transport {
	t := &Transport{
		domain:  domain,
		store:   store,
		polling: DefaultPollingInterval,
		mailbox: "INBOX",
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Run polls the mailbox until ctx is canceled or sender is closed. A
// transient connection error (§6) closes the current session and redials
// through the same retry.Do-backed path as the initial connect, instead of
// ending Run; an authentication failure while using a bearer credential
// asks the credential store to refresh and retries once on the existing
// session. Any other poll error (for example an email that fails to
// parse, or an authentication failure on a password credential) and a
// redial that still fails after its retries end Run with that error.
func (t *Transport) Run(ctx context.Context, sender *channel.Sender[message.Message]) error {
	client, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { client.Close() }()

	done := make(chan error, 1)

	scheduler.Every(ctx, t.polling).Do(func(tickCtx context.Context) {
		pollErr := t.pollOnce(tickCtx, client, sender)
		if pollErr == nil {
			return
		}

		if !isTransient(pollErr) {
			select {
			case done <- pollErr:
			default:
			}

			return
		}

		client.Close()

		newClient, dialErr := t.dial(tickCtx)
		if dialErr != nil {
			select {
			case done <- dialErr:
			default:
			}

			return
		}

		client = newClient
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transport) dial(ctx context.Context) (*imapclient.Client, error) {
	var client *imapclient.Client

	err := retry.Do(ctx, func() error {
		c, dialErr := imapclient.DialTLS(fmt.Sprintf("%s:993", t.domain), nil)
		if dialErr != nil {
			return dialErr
		}

		if authErr := t.authenticate(ctx, c); authErr != nil {
			c.Close()

			return authErr
		}

		client = c

		return nil
	}, nil, retry.WithMaxAttempts(5))

	return client, err
}

func (t *Transport) authenticate(ctx context.Context, client *imapclient.Client) error {
	if t.store.Kind() == credential.KindBearer {
		return client.Authenticate(sasl.NewXoauth2Client(t.domain, t.store.Current()))
	}

	return client.Login(t.domain, t.store.Current()).Wait()
}

// pollOnce fetches the oldest unread message in the mailbox, if any,
// converts it to a message.Message, deletes it, and forwards it with a
// blocking send (the IMAP client library performs synchronous network
// I/O, §5).
func (t *Transport) pollOnce(ctx context.Context, client *imapclient.Client, sender *channel.Sender[message.Message]) error {
	if _, err := client.Select(t.mailbox, nil).Wait(); err != nil {
		if t.isAuthFailure(err) {
			return t.reauthenticate(ctx, client)
		}

		return transientError("imap select failed", err)
	}

	searchData, err := client.Search(&imapv2.SearchCriteria{
		NotFlag: []imapv2.Flag{imapv2.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return transientError("imap search failed", err)
	}

	unread := searchData.AllSeqNums()
	if len(unread) == 0 {
		return nil
	}

	seqSet := imapv2.SeqSetNum(unread[0])
	fetchOptions := &imapv2.FetchOptions{
		Envelope:    true,
		BodySection: []*imapv2.FetchItemBodySection{{}},
	}

	messages, err := client.Fetch(seqSet, fetchOptions).Collect()
	if err != nil {
		return transientError("imap fetch failed", err)
	}
	if len(messages) == 0 {
		return nil
	}

	raw := messages[0].FindBodySection(&imapv2.FetchItemBodySection{})

	msg, parseErr := parseEmail(raw)
	if parseErr != nil {
		return svcioerr.New(svcioerr.CodeFormat, "failed to parse email").AddMeta("error", parseErr.Error())
	}

	deleteSet := imapv2.SeqSetNum(messages[0].SeqNum)
	if err := client.Store(deleteSet, &imapv2.StoreFlags{
		Op:    imapv2.StoreFlagsAdd,
		Flags: []imapv2.Flag{imapv2.FlagDeleted},
	}, nil).Wait(); err != nil {
		return transientError("imap store failed", err)
	}

	if err := client.Expunge(nil).Close(); err != nil {
		return transientError("imap expunge failed", err)
	}

	return sender.BlockingSend(msg)
}

func (t *Transport) isAuthFailure(err error) bool {
	return errors.Is(err, imapv2.ErrAuthenticationFailed) || strings.Contains(err.Error(), "AUTHENTICATIONFAILED")
}

// transientError wraps a connection/protocol-level failure as a
// svcioerr.CodeTransient error, the marker Run's poll loop checks to
// decide whether to redial instead of ending Run.
func transientError(reason string, cause error) error {
	return svcioerr.New(svcioerr.CodeTransient, reason).AddMeta("error", cause.Error())
}

// isTransient reports whether err is a connection-level failure that
// should trigger a reconnect rather than ending Run.
func isTransient(err error) bool {
	structured, ok := err.(*svcioerr.Error)

	return ok && structured.Code == svcioerr.CodeTransient
}

func (t *Transport) reauthenticate(ctx context.Context, client *imapclient.Client) error {
	if t.store.Kind() != credential.KindBearer {
		return svcioerr.New(svcioerr.CodeAuthChallenge, "imap authentication failed")
	}

	if err := t.store.Refresh(ctx); err != nil {
		return err
	}

	return t.authenticate(ctx, client)
}

func parseEmail(raw []byte) (message.Message, error) {
	header, body, err := readMailHeaderAndParts(raw)
	if err != nil {
		return message.Message{}, err
	}

	subjectWords := strings.Fields(header.subject)

	msg := message.Message{
		User:        header.from,
		Attachments: body.attachments,
	}

	if len(subjectWords) > 0 {
		msg.ServiceName = subjectWords[0]
		msg.Args = subjectWords[1:]
	}

	msg.Body = body.plainText

	return msg, nil
}

type parsedHeader struct {
	from    string
	subject string
}

type parsedBody struct {
	plainText   string
	attachments map[string][]byte
}

func readMailHeaderAndParts(raw []byte) (parsedHeader, parsedBody, error) {
	reader := strings.NewReader(string(raw))

	mr, err := mail.CreateReader(reader)
	if err != nil {
		return parsedHeader{}, parsedBody{}, err
	}

	fromAddrs, _ := mr.Header.AddressList("From")

	header := parsedHeader{
		subject: firstOrEmpty(mr.Header.Text("Subject")),
	}

	if len(fromAddrs) > 0 {
		header.from = fromAddrs[0].Address
	}

	body := parsedBody{attachments: make(map[string][]byte)}

	for {
		part, nextErr := mr.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			return header, body, nextErr
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if strings.HasPrefix(contentType, "text/plain") {
				data, _ := io.ReadAll(part.Body)
				body.plainText = string(data)
			}
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			data, _ := io.ReadAll(part.Body)
			body.attachments[filename] = data
		}
	}

	return header, body, nil
}

func firstOrEmpty(s string, err error) string {
	if err != nil {
		return ""
	}

	return s
}
