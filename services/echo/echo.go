// Package echo implements the reference service that forwards every
// received message unchanged — the target of the engine's scenario 1
// end-to-end test.
package echo

import (
	"context"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
)

// Service forwards each request to the output sender without modification.
type Service struct{}

// New returns an Echo service.
func New() Service { return Service{} }

func (Service) Run(
	ctx context.Context,
	receiver *channel.Receiver[message.Message],
	sender *channel.Sender[message.Message],
) error {
	for {
		msg, err := receiver.Recv(ctx)
		if err != nil {
			return err
		}

		if err := sender.Send(ctx, msg); err != nil {
			return err
		}
	}
}
