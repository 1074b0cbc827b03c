// Package alarm implements a countdown service: <name> <minutes> schedules
// a response carrying name to be emitted once minutes have elapsed. The
// timer runs as a child goroutine that shares the service's output
// sender and continues independently of the request loop — the concrete
// illustration of a service spawning additional concurrent work.
package alarm

import (
	"context"
	"strconv"
	"time"

	svcioerr "github.com/lemunozm/service-io/errors"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
	"github.com/lemunozm/service-io/scheduler"
)

// Service schedules a delayed response per request.
type Service struct{}

// New returns an Alarm service.
func New() Service { return Service{} }

func (Service) Run(
	ctx context.Context,
	receiver *channel.Receiver[message.Message],
	sender *channel.Sender[message.Message],
) error {
	for {
		req, err := receiver.Recv(ctx)
		if err != nil {
			return err
		}

		if len(req.Args) != 2 {
			if err := sender.Send(ctx, svcioerr.FormatError(req, "Expected args: <name> <minutes: POSITIVE_NUMBER>")); err != nil {
				return err
			}

			continue
		}

		name, rawMinutes := req.Args[0], req.Args[1]

		minutes, parseErr := strconv.ParseUint(rawMinutes, 10, 64)
		if parseErr != nil {
			if err := sender.Send(ctx, svcioerr.FormatError(req, "Expected args: <name> <minutes: POSITIVE_NUMBER>")); err != nil {
				return err
			}

			continue
		}

		resp := message.Response(req)
		resp.Args = []string{name}

		timerSender := sender.Clone()

		scheduler.After(ctx, time.Duration(minutes)*time.Minute).Do(func(ctx context.Context) {
			defer timerSender.Close()
			_ = timerSender.Send(ctx, resp)
		})
	}
}
