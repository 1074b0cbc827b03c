package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemunozm/service-io/channel"
	"github.com/lemunozm/service-io/message"
)

func TestHandleAllowedWithNoAllowList(t *testing.T) {
	sender, _ := channel.New[message.Message](1)
	h := NewHandle(Registration{Name: "s-test"}, sender)

	assert.True(t, h.Allowed("anyone"))
}

func TestHandleAllowedWithAllowList(t *testing.T) {
	sender, _ := channel.New[message.Message](1)
	h := NewHandle(Registration{
		Name:      "s-test",
		AllowList: map[string]struct{}{"alice": {}},
	}, sender)

	assert.True(t, h.Allowed("alice"))
	assert.False(t, h.Allowed("mallory"))
}

func TestProcessMessageDeliversToInbound(t *testing.T) {
	sender, receiver := channel.New[message.Message](1)
	h := NewHandle(Registration{Name: "s-test"}, sender)

	msg := message.Message{User: "u0", ServiceName: "s-test"}
	h.ProcessMessage(t.Context(), msg)

	got, err := receiver.Recv(t.Context())
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestProcessMessageDropsWhenNotAllowed(t *testing.T) {
	sender, receiver := channel.New[message.Message](1)
	h := NewHandle(Registration{
		Name:      "s-test",
		AllowList: map[string]struct{}{"alice": {}},
	}, sender)

	h.ProcessMessage(t.Context(), message.Message{User: "mallory", ServiceName: "s-test"})
	sender.Close()

	_, err := receiver.Recv(t.Context())
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func TestProcessMessageDropsWhenQueueClosed(t *testing.T) {
	sender, receiver := channel.New[message.Message](1)
	h := NewHandle(Registration{Name: "s-test"}, sender)
	receiver.Chan()
	sender.Close()

	assert.NotPanics(t, func() {
		h.ProcessMessage(t.Context(), message.Message{User: "u0", ServiceName: "s-test"})
	})
}
