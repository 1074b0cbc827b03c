// Package process runs the first request arg as a subprocess, passing the
// remaining args through, and replies with its stdout and terminal status.
// Never register this service without an allow-list (engine §4.4) — it is
// the one bundled service that executes arbitrary commands.
package process

import (
	"context"
	"os/exec"
	"strings"

	svcioerr "github.com/lemunozm/service-io/errors"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
)

// Service runs req.Args[0] with req.Args[1:] as arguments.
type Service struct{}

// New returns a Process service.
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

		if len(req.Args) == 0 {
			if err := sender.Send(ctx, svcioerr.FormatError(req, "You need to specify a process to run")); err != nil {
				return err
			}

			continue
		}

		resultSender := sender.Clone()

		go run(ctx, req, resultSender)
	}
}

func run(ctx context.Context, req message.Message, sender *channel.Sender[message.Message]) {
	defer sender.Close()

	cmdStr := strings.Join(req.Args, " ")
	resp := message.Response(req)

	//nolint:gosec // running the requested command is this service's entire purpose
	cmd := exec.CommandContext(ctx, req.Args[0], req.Args[1:]...)

	out, err := cmd.Output()
	if err != nil {
		resp.Args = []string{"error"}
		resp.Body = "Error while running: " + cmdStr
	} else {
		resp.Args = []string{"Terminated (" + cmd.ProcessState.String() + "): " + cmdStr}
		resp.Body = string(out)
	}

	_ = sender.Send(ctx, resp)
}
