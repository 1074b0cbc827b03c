// Package stdout implements the reference debug output transport: a
// human-readable dump of every message, one per line, to an io.Writer
// (os.Stdout in production). It never fails for format reasons — Run
// returns only when the input receiver closes or ctx is canceled.
package stdout

import (
	"context"
	"fmt"
	"io"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
)

// Transport writes a dump of each received message to writer.
type Transport struct {
	writer io.Writer
}

// New returns a debug-dump Transport writing to writer (os.Stdout in
// production).
func New(writer io.Writer) Transport {
	return Transport{writer: writer}
}

func (t Transport) Run(ctx context.Context, receiver *channel.Receiver[message.Message]) error {
	for {
		msg, err := receiver.Recv(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(t.writer, "%+v\n", msg)
	}
}
