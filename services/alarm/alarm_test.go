package alarm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
)

func TestAlarmFormatErrorOnBadArgs(t *testing.T) {
	inSender, inReceiver := channel.New[message.Message](1)
	outSender, outReceiver := channel.New[message.Message](1)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- New().Run(ctx, inReceiver, outSender) }()

	require.NoError(t, inSender.Send(ctx, message.Message{ServiceName: "alarm", Args: []string{"only-one"}}))

	resp, err := outReceiver.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "format error", resp.Args[0])

	inSender.Close()
}

func TestAlarmSchedulesDelayedResponse(t *testing.T) {
	inSender, inReceiver := channel.New[message.Message](1)
	outSender, outReceiver := channel.New[message.Message](1)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	go func() { _ = New().Run(ctx, inReceiver, outSender) }()

	req := message.Message{User: "u0", ServiceName: "alarm", Args: []string{"wake-up", "0"}}
	require.NoError(t, inSender.Send(ctx, req))

	recvCtx, recvCancel := context.WithTimeout(ctx, time.Second)
	defer recvCancel()

	resp, err := outReceiver.Recv(recvCtx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wake-up"}, resp.Args)
	assert.Equal(t, "u0", resp.User)

	inSender.Close()
}
