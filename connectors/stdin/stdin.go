// Package stdin implements the reference line-oriented input transport:
// one line from standard input per message, the first whitespace-separated
// token naming the service, the rest becoming args.
package stdin

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
)

// Transport reads whitespace-tokenized lines from an io.Reader (os.Stdin
// in production) and tags every message with the same User.
type Transport struct {
	user   string
	reader io.Reader
}

// New returns a stdin Transport that tags every produced message with
// user. reader defaults to os.Stdin when nil.
func New(user string, reader io.Reader) Transport {
	if reader == nil {
		reader = os.Stdin
	}

	return Transport{user: user, reader: reader}
}

// Run reads lines until EOF, sending one message per non-blank line.
// Scanning standard input blocks the goroutine synchronously, so each
// message is handed off with BlockingSend rather than the cancellable
// Send — the reference case for §5's "blocking work" rule.
func (t Transport) Run(ctx context.Context, sender *channel.Sender[message.Message]) error {
	scanner := bufio.NewScanner(t.reader)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		msg := message.Message{
			User:        t.user,
			ServiceName: fields[0],
			Args:        fields[1:],
		}

		if err := sender.BlockingSend(msg); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return scanner.Err()
}
